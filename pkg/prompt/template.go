package prompt

import (
	"strings"
)

func writeRole(prompt *strings.Builder, variant string) {
	prompt.WriteString("<role>\n")
	prompt.WriteString("You are an experienced acting coach preparing an actor for an audition.\n")
	if variant == VariantSimplified {
		prompt.WriteString("You are rewriting an existing scene guide into a short, plain-language version the actor can read in two minutes.\n")
	} else {
		prompt.WriteString("You write detailed scene guides grounded in established acting methodology.\n")
	}
	prompt.WriteString("</role>\n\n")
}

func writeMethodology(prompt *strings.Builder, block string) {
	if block == "" {
		return
	}
	prompt.WriteString("<methodology>\n")
	prompt.WriteString(block)
	prompt.WriteString("</methodology>\n\n")
}

func writeOutputRules(prompt *strings.Builder, variant string) {
	prompt.WriteString("<output_rules>\n")
	prompt.WriteString("- Respond with an HTML fragment only: h1, h2, h3, p, ul, ol, li, strong, em, blockquote.\n")
	prompt.WriteString("- Do not wrap the answer in code fences and do not include html, head or body tags.\n")
	prompt.WriteString("- Base every claim about the character on the scene text.\n")
	if variant == VariantSimplified {
		prompt.WriteString("- Keep it under 300 words with short bullet points.\n")
	} else {
		prompt.WriteString("- Cover: character snapshot, given circumstances, objective and obstacles, beat breakdown, key moments, performance notes.\n")
	}
	prompt.WriteString("</output_rules>\n")
}

func writeProduction(prompt *strings.Builder, meta Meta) {
	prompt.WriteString("<production>\n")
	prompt.WriteString("Character: " + meta.CharacterName + "\n")
	prompt.WriteString("Title: " + meta.ProductionTitle + "\n")
	if meta.ProductionType != "" {
		prompt.WriteString("Type: " + meta.ProductionType + "\n")
	}
	prompt.WriteString("</production>\n\n")
}

func writeScene(prompt *strings.Builder, scene string, ext Extracted) {
	prompt.WriteString("<scene")
	if ext.Confidence != "" {
		prompt.WriteString(` extraction_confidence="` + ext.Confidence + `"`)
	}
	prompt.WriteString(">\n")
	prompt.WriteString(scene)
	prompt.WriteString("\n</scene>\n\n")
	if ext.Confidence == "low" {
		prompt.WriteString("The scene text came from a poor scan and may contain recognition errors. Infer intent where words are garbled.\n\n")
	}
}

func writePrimaryGuide(prompt *strings.Builder, primary string) {
	prompt.WriteString("<primary_guide>\n")
	prompt.WriteString(strings.TrimSpace(primary))
	prompt.WriteString("\n</primary_guide>\n\n")
}

func writeTask(prompt *strings.Builder, character, variant string) {
	prompt.WriteString("<task>\n")
	if variant == VariantSimplified {
		prompt.WriteString("Simplify the primary guide above for " + character + ". Keep its conclusions; drop the theory.\n")
	} else {
		prompt.WriteString("Write the scene guide for " + character + ".\n")
	}
	prompt.WriteString("</task>")
}
