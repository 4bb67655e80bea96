package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"expert-hub/models"
)

// ErrEmptyProfile wird geliefert, wenn das Modell keine verwertbaren Felder liefert.
var ErrEmptyProfile = errors.New("generated profile contains no usable fields")

// ProfileGenerator erzeugt aus einem Prompt ein JSON-Objekt.
type ProfileGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAIGenerator ruft ein Gemini-Modell über google.golang.org/genai auf.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator erstellt einen Generator für das angegebene Modell.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// enrichableSections sind die Abschnitte, die ein generiertes Profil setzen darf.
var enrichableSections = []string{
	"bio", "expertise", "currentRole", "education",
	"publications", "projects", "tags", "academicMetrics",
}

// EnrichmentService ergänzt Expertenprofile mit KI-generierten Inhalten.
type EnrichmentService struct {
	Generator ProfileGenerator
	Logger    *zap.Logger
	now       func() time.Time
}

func NewEnrichmentService(gen ProfileGenerator, logger *zap.Logger) *EnrichmentService {
	return &EnrichmentService{Generator: gen, Logger: logger, now: time.Now}
}

// Enrich lässt das Modell ein Profil erzeugen und führt die erlaubten
// Abschnitte in den Datensatz zusammen. Personendaten bleiben unverändert.
func (s *EnrichmentService) Enrich(ctx context.Context, e *models.Expert) (*models.Expert, error) {
	prompt, err := buildEnrichmentPrompt(e)
	if err != nil {
		return nil, err
	}
	raw, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	patch, err := parseGeneratedProfile(raw)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, ErrEmptyProfile
	}
	s.Logger.Info("KI-Profil erzeugt",
		zap.String("slug", e.ID), zap.Int("sections", len(patch)))
	return MergeExpert(e, patch, s.now())
}

func buildEnrichmentPrompt(e *models.Expert) (string, error) {
	current, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding expert for prompt: %w", err)
	}
	var b strings.Builder
	b.WriteString("Du pflegst eine Datenbank deutscher KI-Experten.\n")
	b.WriteString("Ergänze das folgende Profil. Antworte ausschließlich mit einem JSON-Objekt ")
	b.WriteString("mit den Schlüsseln: ")
	b.WriteString(strings.Join(enrichableSections, ", "))
	b.WriteString(".\nErfinde keine Kontaktdaten. Unbekannte Felder lässt du weg.\n\n")
	b.Write(current)
	return b.String(), nil
}

// parseGeneratedProfile liest die Modellantwort (auch in ```json-Blöcken)
// und behält nur die erlaubten Abschnitte.
func parseGeneratedProfile(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var generated map[string]any
	if err := json.Unmarshal([]byte(text), &generated); err != nil {
		return nil, fmt.Errorf("decoding generated profile: %w", err)
	}
	patch := make(map[string]any)
	for _, key := range enrichableSections {
		if v, ok := generated[key]; ok && v != nil {
			patch[key] = v
		}
	}
	if bio, ok := patch["bio"].(string); ok {
		patch["bio"] = CleanText(bio)
	}
	return patch, nil
}
