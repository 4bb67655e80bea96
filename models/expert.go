package models

import "time"

// PlaceholderImage ist das Standardbild für Experten ohne eigenes Foto.
const PlaceholderImage = "/experts/placeholder.jpg"

// DefaultLanguages sind die Sprachen eines neu angelegten Expertenprofils.
var DefaultLanguages = []string{"Deutsch", "Englisch"}

// Expert ist der kanonische Datensatz eines KI-Experten.
// Alle Felder werden immer serialisiert, auch wenn sie leer oder null sind,
// damit Leser nie zwischen "fehlt" und "null" unterscheiden müssen.
type Expert struct {
	// ID ist der lesbare Slug (exp-<vorname>-<nachname>), nicht eindeutig.
	ID              string          `json:"id"`
	PersonalInfo    PersonalInfo    `json:"personalInfo"`
	Institution     Institution     `json:"institution"`
	Expertise       Expertise       `json:"expertise"`
	AcademicMetrics AcademicMetrics `json:"academicMetrics"`
	CurrentRole     CurrentRole     `json:"currentRole"`
	Profiles        Profiles        `json:"profiles"`
	Bio             string          `json:"bio"`

	// Lose typisierte Listen; die Felder hängen von der Quelle ab.
	Education    []Entry `json:"education"`
	Publications []Entry `json:"publications"`
	Projects     []Entry `json:"projects"`
	References   []Entry `json:"references"`

	PriorCompany *string  `json:"priorCompany"`
	Comments     *string  `json:"comments"`
	Tags         []string `json:"tags"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PersonalInfo enthält die Personendaten eines Experten.
type PersonalInfo struct {
	Title       *string  `json:"title"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	FullName    string   `json:"fullName"`
	Image       string   `json:"image"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Languages   []string `json:"languages"`
	Address     string   `json:"address"`
	DateOfBirth *string  `json:"dateOfBirth"`
	Nationality string   `json:"nationality"`
	Location    string   `json:"location"`
}

type Institution struct {
	Name       string `json:"name"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Website    string `json:"website"`
}

type Expertise struct {
	Primary    []string `json:"primary"`
	Secondary  []string `json:"secondary"`
	Industries []string `json:"industries"`
}

type AcademicMetrics struct {
	Publications PublicationMetrics `json:"publications"`
}

type PublicationMetrics struct {
	Total   int                `json:"total"`
	Sources PublicationSources `json:"sources"`
}

type PublicationSources struct {
	GoogleScholar *int `json:"googleScholar"`
	Scopus        *int `json:"scopus"`
}

type CurrentRole struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Focus        string `json:"focus"`
}

type Profiles struct {
	LinkedIn string `json:"linkedin"`
	Company  string `json:"company"`
	Twitter  string `json:"twitter"`
	Other    string `json:"other"`
}

// Entry ist ein Listeneintrag ohne festes Schema (z.B. degree, institution, year).
type Entry map[string]any

// NewExpertTemplate erzeugt einen leeren kanonischen Datensatz mit der aktuellen Zeit.
func NewExpertTemplate() *Expert {
	return NewExpertTemplateAt(time.Now())
}

// NewExpertTemplateAt erzeugt einen leeren kanonischen Datensatz.
// Jeder Aufruf legt eigene Slices an; zwei Templates teilen keinen Zustand.
func NewExpertTemplateAt(now time.Time) *Expert {
	return &Expert{
		PersonalInfo: PersonalInfo{
			Image:     PlaceholderImage,
			Languages: append([]string(nil), DefaultLanguages...),
		},
		Expertise: Expertise{
			Primary:    []string{},
			Secondary:  []string{},
			Industries: []string{},
		},
		Education:    []Entry{},
		Publications: []Entry{},
		Projects:     []Entry{},
		References:   []Entry{},
		Tags:         []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
