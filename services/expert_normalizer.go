package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"expert-hub/models"
)

// ErrUnrecognizedShape kennzeichnet einen Rohdatensatz ohne erkennbare Form.
var ErrUnrecognizedShape = errors.New("unrecognized record shape")

// ExpertNormalizer bildet Rohdatensätze auf den kanonischen Experten ab.
type ExpertNormalizer struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewExpertNormalizer erstellt einen Normalizer mit der Systemzeit.
func NewExpertNormalizer(logger *zap.Logger) *ExpertNormalizer {
	return &ExpertNormalizer{logger: logger, now: time.Now}
}

// Normalize wandelt einen Rohdatensatz in einen kanonischen Datensatz um.
// Bei unbekannter Form wird ein leeres Template zusammen mit
// ErrUnrecognizedShape geliefert.
func (n *ExpertNormalizer) Normalize(raw models.RawRecord) (*models.Expert, error) {
	switch source := raw.ResolvedSource(); source {
	case models.SourceCanonical:
		return n.fromCanonical(raw)
	case models.SourceGermanCSV:
		return n.fromGermanCSV(raw), nil
	case models.SourceForm:
		return n.fromForm(raw), nil
	case models.SourceUnknown:
		n.logger.Warn("Datensatz ohne erkennbare Form, leeres Template verwendet",
			zap.String("origin", raw.Origin), zap.Int("field_count", len(raw.Fields)))
		return models.NewExpertTemplateAt(n.now()), ErrUnrecognizedShape
	default:
		return nil, fmt.Errorf("unknown record source %q", source)
	}
}

// fromCanonical legt den Datensatz per DeepMerge über ein frisches Template.
func (n *ExpertNormalizer) fromCanonical(raw models.RawRecord) (*models.Expert, error) {
	now := n.now()
	doc, err := toDocument(models.NewExpertTemplateAt(now))
	if err != nil {
		return nil, err
	}
	if _, err := DeepMerge(doc, raw.Fields); err != nil {
		return nil, fmt.Errorf("merging canonical record: %w", err)
	}
	var e models.Expert
	if err := fromDocument(doc, &e); err != nil {
		return nil, fmt.Errorf("canonical record %s: %w", raw.Origin, err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return &e, nil
}

// fromGermanCSV bildet eine flache CSV-Zeile (Vorname, Nachname, Company, ...) ab.
func (n *ExpertNormalizer) fromGermanCSV(raw models.RawRecord) *models.Expert {
	e := models.NewExpertTemplateAt(n.now())

	title := raw.String(models.FieldTitle)
	first := raw.String(models.FieldFirstName)
	last := raw.String(models.FieldLastName)
	company := raw.String(models.FieldCompany)
	jobTitle := raw.String(models.FieldJobTitle)

	e.ID = Slug(first, last)
	if title != "" {
		e.PersonalInfo.Title = &title
	}
	e.PersonalInfo.FirstName = first
	e.PersonalInfo.LastName = last
	e.PersonalInfo.FullName = FullName(title, first, last)
	e.PersonalInfo.Email = raw.String(models.FieldEmail)
	e.PersonalInfo.Phone = raw.String(models.FieldPhone)
	e.PersonalInfo.Image = fmt.Sprintf("/experts/%s-%s.jpg", strings.ToLower(first), strings.ToLower(last))
	e.PersonalInfo.Languages = []string{"Deutsch"}
	if address := raw.String(models.FieldAddress); address != "" {
		e.PersonalInfo.Address = address
	}

	e.Institution.Name = company
	e.Institution.Position = jobTitle
	e.Institution.Website = raw.String(models.FieldHomepage)

	e.Expertise.Primary = SplitList(raw.String(models.FieldFieldOfActivity))

	e.Profiles.LinkedIn = raw.String(models.FieldLinkedIn)
	e.Profiles.Company = raw.String(models.FieldCompanyLink)

	tags := append([]string{}, e.Expertise.Primary...)
	if company != "" {
		tags = append(tags, company)
	}
	if jobTitle != "" {
		tags = append(tags, jobTitle)
	}
	e.Tags = tags

	if comment := CleanText(raw.String(models.FieldComment)); comment != "" {
		e.Comments = &comment
	}
	if prior := raw.String(models.FieldPriorCompany); prior != "" {
		e.PriorCompany = &prior
	}
	if ref := raw.String(models.FieldReference); ref != "" {
		entry := models.Entry{"name": ref}
		if link := raw.String(models.FieldReferenceLink); link != "" {
			entry["link"] = link
		}
		e.References = append(e.References, entry)
	}
	return e
}

// fromForm bildet eine einfache Formulareingabe (name, company, title, ...) ab.
func (n *ExpertNormalizer) fromForm(raw models.RawRecord) *models.Expert {
	e := models.NewExpertTemplateAt(n.now())
	f := raw.Fields

	name, _ := f["name"].(string)
	parts := strings.Fields(name)
	var first, last string
	if len(parts) > 0 {
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}
	e.ID = Slug(first, last)
	e.PersonalInfo.FirstName = first
	e.PersonalInfo.LastName = last
	e.PersonalInfo.FullName = name

	e.Institution.Name = models.StringValue(f["company"])
	e.Institution.Position = models.StringValue(f["title"])

	switch v := f["expertise"].(type) {
	case string:
		e.Expertise.Primary = SplitList(v)
		e.Tags = append([]string{}, e.Expertise.Primary...)
	case []any:
		e.Expertise.Primary = stringList(v)
		e.Tags = append([]string{}, e.Expertise.Primary...)
	case []string:
		e.Expertise.Primary = append([]string{}, v...)
		e.Tags = append([]string{}, v...)
	}

	if bio, ok := f["bio"]; ok {
		e.Bio = CleanText(models.StringValue(bio))
	}
	if website, ok := f["website"]; ok {
		e.Profiles.Company = models.StringValue(website)
	}
	if linkedin, ok := f["linkedin"]; ok {
		e.Profiles.LinkedIn = models.StringValue(linkedin)
	}
	if twitter, ok := f["twitter"]; ok {
		e.Profiles.Twitter = models.StringValue(twitter)
	}
	if email, ok := f["email"]; ok {
		e.PersonalInfo.Email = models.StringValue(email)
	}
	if phone, ok := f["phone"]; ok {
		e.PersonalInfo.Phone = models.StringValue(phone)
	}
	return e
}

// FullName verbindet Titel, Vor- und Nachname mit genau einem Leerzeichen.
func FullName(title, first, last string) string {
	return strings.Join(strings.Fields(title+" "+first+" "+last), " ")
}

// Slug erzeugt den lesbaren Bezeichner exp-<vorname>-<nachname>.
// Der Slug ist nicht eindeutig; gleichnamige Personen kollidieren.
func Slug(first, last string) string {
	parts := strings.Fields(strings.ToLower(first + " " + last))
	return "exp-" + strings.Join(parts, "-")
}

// SplitList trennt eine kommagetrennte Liste und trimmt die Einträge.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func stringList(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := models.StringValue(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
