package prompt

import (
	"fmt"
	"strings"

	"portfolio-assistant-be/pkg/knowledge"
)

// Roles the assembler knows how to voice.
const (
	RoleRecruiter = "recruiter"
	RoleVisitor   = "visitor"
)

// Builder composes the system instruction from the persona, the
// role-specific tone, and the retrieved facts. Pure string assembly: same
// inputs, same prompt.
type Builder struct {
	ownerName      string
	personaSummary string
}

func NewBuilder(ownerName, personaSummary string) *Builder {
	return &Builder{
		ownerName:      ownerName,
		personaSummary: personaSummary,
	}
}

// PersonaSummary is the static description of the owner, also used by the
// generator when every other source of text has failed.
func (b *Builder) PersonaSummary() string { return b.personaSummary }

// OwnerName returns who the assistant speaks as.
func (b *Builder) OwnerName() string { return b.ownerName }

// PersonaBlock renders the role-toned persona section. Once a session's
// role is identified the pipeline caches this string and skips the rebuild
// on later turns.
func (b *Builder) PersonaBlock(role string) string {
	tone := "Goal: delight with a warm, storytelling tone."
	if role == RoleRecruiter {
		tone = "Goal: impress with technical depth in a professional tone."
	}
	return fmt.Sprintf(
		"You are %s, speaking in first person about your own work.\n%s\n%s",
		b.ownerName, b.personaSummary, tone)
}

// Build renders the full system instruction for one turn.
func (b *Builder) Build(role, userName string, docs []knowledge.Document) string {
	return b.Compose(b.PersonaBlock(role), userName, docs)
}

// Compose assembles a prompt around an already-rendered persona block.
func (b *Builder) Compose(personaBlock, userName string, docs []knowledge.Document) string {
	var sb strings.Builder

	sb.WriteString(personaBlock)
	sb.WriteString("\n\n")
	sb.WriteString(renderContext(docs))
	sb.WriteString("\n")
	sb.WriteString(renderInstructions(userName))

	return sb.String()
}

func renderContext(docs []knowledge.Document) string {
	var sb strings.Builder
	sb.WriteString("RETRIEVED CONTEXT (the ONLY admissible facts):\n")
	if len(docs) == 0 {
		sb.WriteString("- No documents were retrieved for this question.\n")
		return sb.String()
	}
	for _, doc := range docs {
		if docType := doc.Metadata.Type(); docType != "" {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", docType, doc.Content))
		} else {
			sb.WriteString("- " + doc.Content + "\n")
		}
	}
	return sb.String()
}

func renderInstructions(userName string) string {
	return strings.Join([]string{
		"INSTRUCTIONS (MUST FOLLOW):",
		"1. Answer ONLY from the retrieved context above. Do NOT invent projects, metrics, or technologies.",
		"2. If the context does not cover the question, say so honestly and pivot to something it does cover.",
		"3. End with a question addressing the user by name (" + userName + ").",
		"4. If the user asks for the CV or resume file, include the literal token [SEND_CV] in your reply.",
	}, "\n")
}
