package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"portfolio-assistant-be/pkg/knowledge"
)

// Profile is the on-disk shape of the owner's profile file. The admin
// surface that edits it lives outside this service; here it is only read.
type Profile struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Contact struct {
		Email    string `json:"email"`
		LinkedIn string `json:"linkedin"`
		GitHub   string `json:"github"`
	} `json:"contact"`
	Skills []struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	} `json:"skills"`
	Projects []struct {
		Title        string   `json:"title"`
		Year         string   `json:"year"`
		Description  string   `json:"description"`
		Technologies []string `json:"technologies"`
		Impact       string   `json:"impact"`
		URL          string   `json:"url"`
	} `json:"projects"`
	Experience []struct {
		Title        string   `json:"title"`
		Company      string   `json:"company"`
		StartDate    string   `json:"start_date"`
		EndDate      string   `json:"end_date"`
		IsCurrent    bool     `json:"is_current"`
		Description  string   `json:"description"`
		Technologies []string `json:"technologies"`
	} `json:"experience"`
	Education []struct {
		Degree      string `json:"degree"`
		Institution string `json:"institution"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		GPA         string `json:"gpa"`
	} `json:"education"`
	Certificates []struct {
		Title  string `json:"title"`
		Issuer string `json:"issuer"`
		Year   string `json:"year"`
	} `json:"certificates"`
}

// StaticLoader renders the profile file into the static corpus: one
// document per project, experience, education, and certificate entry, plus
// aggregate skills, contact, and summary documents.
type StaticLoader struct {
	profilePath string
}

func NewStaticLoader(profilePath string) *StaticLoader {
	return &StaticLoader{profilePath: profilePath}
}

func (l *StaticLoader) Name() string { return "static" }

func (l *StaticLoader) Load(ctx context.Context) ([]knowledge.Document, error) {
	profile, err := ReadProfile(l.profilePath)
	if err != nil {
		return nil, err
	}
	return RenderProfile(profile), nil
}

// ReadProfile parses the profile JSON file.
func ReadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &profile, nil
}

// RenderProfile flattens the profile into retrievable documents with the
// metadata tags the filter rules key on.
func RenderProfile(p *Profile) []knowledge.Document {
	var docs []knowledge.Document

	if p.Summary != "" {
		docs = append(docs, knowledge.Document{
			Content: fmt.Sprintf("About %s: %s", p.Name, p.Summary),
			Metadata: knowledge.Metadata{
				"type":   "profile",
				"source": "profile",
				"title":  p.Name,
			},
		})
	}

	for _, proj := range p.Projects {
		content := fmt.Sprintf("Project: %s (%s). Description: %s", proj.Title, proj.Year, proj.Description)
		if len(proj.Technologies) > 0 {
			content += " Technologies: " + strings.Join(proj.Technologies, ", ") + "."
		}
		if proj.Impact != "" {
			content += " Impact: " + proj.Impact
		}
		docs = append(docs, knowledge.Document{
			Content: content,
			Metadata: knowledge.Metadata{
				"type":   "project",
				"source": "profile",
				"title":  proj.Title,
				"url":    proj.URL,
			},
		})
	}

	for _, exp := range p.Experience {
		end := exp.EndDate
		if exp.IsCurrent {
			end = "Present"
		}
		content := fmt.Sprintf("Experience: %s at %s. Period: %s to %s. %s",
			exp.Title, exp.Company, exp.StartDate, end, exp.Description)
		if len(exp.Technologies) > 0 {
			content += " Technologies: " + strings.Join(exp.Technologies, ", ") + "."
		}
		docs = append(docs, knowledge.Document{
			Content: content,
			Metadata: knowledge.Metadata{
				"type":       "experience",
				"source":     "profile",
				"title":      exp.Title,
				"company":    exp.Company,
				"is_current": exp.IsCurrent,
			},
		})
	}

	if len(p.Skills) > 0 {
		parts := make([]string, 0, len(p.Skills))
		for _, skill := range p.Skills {
			if skill.Level != "" {
				parts = append(parts, fmt.Sprintf("%s (%s)", skill.Name, skill.Level))
			} else {
				parts = append(parts, skill.Name)
			}
		}
		docs = append(docs, knowledge.Document{
			Content: "Skills and technologies: " + strings.Join(parts, ", "),
			Metadata: knowledge.Metadata{
				"type":   "skills",
				"source": "profile",
			},
		})
	}

	for _, edu := range p.Education {
		docs = append(docs, knowledge.Document{
			Content: fmt.Sprintf("Education: %s at %s. Period: %s to %s. GPA: %s",
				edu.Degree, edu.Institution, edu.StartDate, edu.EndDate, edu.GPA),
			Metadata: knowledge.Metadata{
				"type":   "education",
				"source": "profile",
				"title":  edu.Degree,
			},
		})
	}

	for _, cert := range p.Certificates {
		docs = append(docs, knowledge.Document{
			Content: fmt.Sprintf("Certificate: %s issued by %s (%s)", cert.Title, cert.Issuer, cert.Year),
			Metadata: knowledge.Metadata{
				"type":   "education",
				"source": "profile",
				"title":  cert.Title,
			},
		})
	}

	contact := p.Contact
	if contact.Email != "" || contact.LinkedIn != "" || contact.GitHub != "" {
		docs = append(docs, knowledge.Document{
			Content: fmt.Sprintf("Contact: email %s, LinkedIn %s, GitHub %s",
				contact.Email, contact.LinkedIn, contact.GitHub),
			Metadata: knowledge.Metadata{
				"type":   "contact",
				"source": "profile",
			},
		})
	}

	return docs
}
