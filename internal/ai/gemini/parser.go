// Package gemini suggests ledger movements from free text using Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"clarify/internal/core"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const DefaultModelName = "gemini-2.5-flash"

const maxDescription = 200

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Parser implements services.MovementParser on top of the Gemini API.
type Parser struct {
	models generator
	model  string
}

// NewParser creates a Gemini-backed parser authenticated with apiKey.
func NewParser(ctx context.Context, apiKey, model string) (*Parser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &Parser{models: client.Models, model: model}, nil
}

// modelMovement is the shape the prompt asks the model to emit.
type modelMovement struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Date        string      `json:"date"`
}

// ParseMovements asks the model for the movements described in text. Items
// the model gets wrong (unknown type, non-positive amount) are dropped; a
// missing or malformed date falls back to today.
func (p *Parser) ParseMovements(ctx context.Context, text string, today core.Date) ([]core.ParsedMovement, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(text, today)}},
		},
	}
	resp, err := p.models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	return decodeMovements(cleanModelJSON(raw), today)
}

func buildPrompt(text string, today core.Date) string {
	return "You extract personal finance movements from a short message.\n\n" +
		"Today is " + today.String() + ".\n" +
		"Return a JSON array. Each element has:\n" +
		"- \"description\": short string\n" +
		"- \"amount\": positive number with at most 2 decimals\n" +
		"- \"type\": one of \"earning\", \"expense\", \"investment\"\n" +
		"- \"date\": \"YYYY-MM-DD\"; resolve relative dates against today\n\n" +
		"Return ONLY raw JSON, no Markdown.\n\n" +
		"Message:\n" + text
}

func decodeMovements(clean string, today core.Date) ([]core.ParsedMovement, error) {
	var items []modelMovement
	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}

	out := make([]core.ParsedMovement, 0, len(items))
	for _, it := range items {
		typ := core.MovementType(strings.ToLower(strings.TrimSpace(it.Type)))
		if typ.Validate() != nil {
			continue
		}
		amount, err := decimal.NewFromString(it.Amount.String())
		if err != nil {
			continue
		}
		m := core.Money{Amount: amount.Abs().Round(2)}
		if !m.IsPositive() {
			continue
		}
		d, err := core.ParseDate(strings.TrimSpace(it.Date))
		if err != nil {
			d = today
		}
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = string(typ)
		}
		if len(desc) > maxDescription {
			desc = desc[:maxDescription]
		}
		out = append(out, core.ParsedMovement{Description: desc, Amount: m, Type: typ, Date: d})
	}
	return out, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost array when the model adds prose around it.
	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
