package sexy

import (
	"bytes"
	"strings"

	"github.com/nikandfor/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType represents the type of input code fence in a test
type InputType string

const (
	InputTypeSysYAST InputType = "sysy-ast"
)

// AssertionType represents the type of assertion code fence in a test
type AssertionType string

const (
	AssertionTypeAST          AssertionType = "ast"
	AssertionTypeKoopa        AssertionType = "koopa"
	AssertionTypeCompileError AssertionType = "compile-error"
	AssertionTypeExecute      AssertionType = "execute"
	AssertionTypeLLVM         AssertionType = "llvm"
)

// Assertion represents a single assertion in a test
type Assertion struct {
	Type       AssertionType
	Content    string // raw content of the fence
	ParsedSexy *Node  // set for ast assertions only
	Line       int
}

// TestCase represents a complete test case extracted from Markdown
type TestCase struct {
	Name       string // heading text after "Test: "
	Input      string
	InputType  InputType
	Line       int // line of the heading
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and extracts all test cases.
//
// A test case starts at a heading "Test: <name>" and owns the fenced code
// blocks up to the next such heading: exactly one input fence and at least
// one assertion fence. Fences without a language are prose and ignored.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	source := []byte(markdownContent)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := validateTestCase(current); err != nil {
			return err
		}
		testCases = append(testCases, *current)
		current = nil
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			name, ok := strings.CutPrefix(headingText, "Test: ")
			if !ok {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &TestCase{Name: name, Line: getLineNumber(n, source)}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			if language == "" {
				return ast.WalkContinue, nil
			}

			lineNum := getLineNumber(n, source)
			content := strings.TrimRight(extractCodeBlockContent(n, source), "\n")

			known := isInputFence(language) || isAssertionFence(language)
			switch {
			case current == nil && known:
				return ast.WalkStop, errors.New("line %d: %s fence found outside of test case", lineNum, language)
			case current == nil:
				return ast.WalkStop, errors.New("line %d: unknown fence language '%s' found outside of test case", lineNum, language)
			case !known:
				return ast.WalkStop, errors.New("line %d: unknown fence language '%s' in test '%s'", lineNum, language, current.Name)
			}

			if isInputFence(language) {
				if current.Input != "" {
					return ast.WalkStop, errors.New("line %d: multiple input fences found in test '%s'", lineNum, current.Name)
				}
				current.Input = content
				current.InputType = InputType(language)
				return ast.WalkContinue, nil
			}

			assertion := Assertion{
				Type:    AssertionType(language),
				Content: content,
				Line:    lineNum,
			}

			if assertion.Type == AssertionTypeAST {
				parsed, err := Parse(content)
				if err != nil {
					return ast.WalkStop, errors.Wrap(err, "line %d: failed to parse Sexy assertion in test '%s'", lineNum, current.Name)
				}
				assertion.ParsedSexy = parsed
			}

			current.Assertions = append(current.Assertions, assertion)
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walk markdown")
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return testCases, nil
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	lines := codeBlock.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

func isInputFence(language string) bool {
	return language == string(InputTypeSysYAST)
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeAST, AssertionTypeKoopa, AssertionTypeCompileError, AssertionTypeExecute, AssertionTypeLLVM:
		return true
	}
	return false
}

// validateTestCase ensures a test case has both input and at least one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Input == "" {
		return errors.New("test '%s' has no input fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return errors.New("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber calculates the 1-based line number of a block node.
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}

	start := node.Lines().At(0).Start
	if start > len(source) {
		start = len(source)
	}

	return bytes.Count(source[:start], []byte{'\n'}) + 1
}
