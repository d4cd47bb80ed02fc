package llm

import (
	"fmt"
	"strings"

	"github.com/testgen-hq/pymute/internal/diffan"
)

// systemKillerTests frames every survivor-killer conversation.
const systemKillerTests = "You are an expert at generating targeted pytest test cases " +
	"that kill specific mutants in mutation testing. Killer tests must pass on the " +
	"original source code and fail on the mutants."

// KillerTestPrompt builds the prompt asking for a killer test suite.
// Source and existing suite are embedded directly in the prompt.
func KillerTestPrompt(module, sourceCode, existingTests string, analyses []*diffan.Analysis) string {
	var b strings.Builder

	b.WriteString("# MUTATION TESTING KILLER TEST GENERATION\n\n")
	b.WriteString("Your task is to create killer tests that will PASS on the original source code but FAIL on the surviving mutants.\n\n")

	fmt.Fprintf(&b, "## SOURCE CODE (%s.py):\n\n```python\n%s\n```\n\n", module, sourceCode)
	b.WriteString("## EXISTING TEST SUITE (for import structure, style, and testing patterns):\n\n")
	fmt.Fprintf(&b, "```python\n%s\n```\n\n", existingTests)

	b.WriteString("## CRITICAL REQUIREMENTS:\n\n")
	fmt.Fprintf(&b, "1. **File Structure**: This will be saved as `mutants_killer_tests_%s.py`\n", module)
	b.WriteString("2. **Import Structure**: Follow the exact same pattern as the existing test file\n")
	b.WriteString("3. **Test Behavior**: Tests MUST pass on original source, MUST fail on mutants\n")
	b.WriteString("4. **Naming**: Use descriptive test names like `test_kill_mutant_[description]`\n\n")

	b.WriteString("## SURVIVING MUTANTS TO KILL:\n\n")
	for i, analysis := range analyses {
		fmt.Fprintf(&b, "### Mutant %d: %s\n\n", i+1, analysis.MutantFile)
		if len(analysis.Changes) == 0 {
			b.WriteString("No line changes detected.\n\n")
			continue
		}
		b.WriteString("**Changes made:**\n")
		for _, c := range analysis.Changes {
			switch c.Type {
			case diffan.Modified:
				fmt.Fprintf(&b, "- Line %d: `%s` -> `%s`\n", c.LineNumber, c.Original, c.Mutated)
			case diffan.Deleted:
				fmt.Fprintf(&b, "- Line %d: Deleted `%s`\n", c.LineNumber, c.Original)
			case diffan.Inserted:
				fmt.Fprintf(&b, "- Line %d: Inserted `%s`\n", c.LineNumber, c.Mutated)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## KILLER TEST STRATEGIES:\n\n")
	b.WriteString("1. **Value Mutations**: Test exact values that expose the mutation\n")
	b.WriteString("2. **Operator Mutations**: Test boundary conditions that reveal operator changes\n")
	b.WriteString("3. **Logic Mutations**: Test specific control flow scenarios\n")
	b.WriteString("4. **Main Guard Mutations**: Use module execution testing with runpy or importlib.reload\n\n")

	b.WriteString("Use a `class TestKillerMutants:` container with one test method per mutant where practical.\n")
	b.WriteString("Return ONLY the complete Python test file, without markdown formatting.\n")

	return b.String()
}

// RepairPrompt builds the prompt asking for a corrected killer suite
// after a run against the original source failed.
func RepairPrompt(module, errorOutput string) string {
	var b strings.Builder

	b.WriteString("The killer test execution failed with the following error:\n\n")
	fmt.Fprintf(&b, "ERROR OUTPUT:\n```\n%s\n```\n\n", errorOutput)
	b.WriteString("Please regenerate the complete killer test suite that fixes these issues.\n\n")
	b.WriteString("CRITICAL REQUIREMENTS:\n")
	fmt.Fprintf(&b, "1. This is a killer test file for %s.py\n", module)
	b.WriteString("2. Keep the same import structure as before\n")
	b.WriteString("3. Tests MUST pass on original source, MUST fail on mutants\n")
	b.WriteString("4. Use `class TestKillerMutants:` with proper test methods\n")
	b.WriteString("5. Use descriptive test names like `test_kill_mutant_[description]`\n\n")
	b.WriteString("Fix all syntax errors, import issues, and test logic problems.\n")
	b.WriteString("Return ONLY the corrected Python test code without markdown formatting.\n")

	return b.String()
}

// MergePrompt builds the prompt asking to fold killer tests into the
// main generated suite.
func MergePrompt(module, existingTests, killerTests string) string {
	var b strings.Builder

	b.WriteString("You are an expert software testing engineer. Merge two test suites for the same Python module.\n\n")
	fmt.Fprintf(&b, "EXISTING TEST SUITE (llm_generated_test_%s.py):\n```python\n%s\n```\n\n", module, existingTests)
	fmt.Fprintf(&b, "KILLER TESTS SUITE (mutants_killer_tests_%s.py):\n```python\n%s\n```\n\n", module, killerTests)
	b.WriteString("**Guidelines:**\n")
	b.WriteString("1. Keep the existing test structure and all existing test methods\n")
	b.WriteString("2. Add all killer test methods from the killer suite\n")
	b.WriteString("3. Combine import statements, removing duplicates\n")
	b.WriteString("4. Merge everything into one main test class, keeping the existing class name\n")
	b.WriteString("5. Preserve all docstrings and comments\n\n")
	b.WriteString("Return the complete merged pytest file, all imports at the top, without markdown formatting.\n")

	return b.String()
}

// CleanTestCode strips markdown fences and surrounding prose from an
// LLM response, leaving the Python source.
func CleanTestCode(response string) string {
	text := strings.TrimSpace(response)

	// Prefer a fenced python block when present.
	if start := strings.Index(text, "```python"); start != -1 {
		rest := text[start+len("```python"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end]) + "\n"
		}
		return strings.TrimSpace(rest) + "\n"
	}
	if start := strings.Index(text, "```"); start != -1 {
		rest := text[start+3:]
		if nl := strings.Index(rest, "\n"); nl != -1 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end]) + "\n"
		}
		return strings.TrimSpace(rest) + "\n"
	}

	if text == "" {
		return ""
	}
	return text + "\n"
}
