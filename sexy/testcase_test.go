package sexy

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtractTestCases_BasicTest(t *testing.T) {
	markdown := `# Returns

## Test: return literal
` + fence + `sysy-ast
(program (func "main" int (block (return 1))))
` + fence + `
` + fence + `koopa
fun @main(): i32 {
%entry:
   %0 = add 0, 1
   ret %0
}
` + fence + `

## Test: return zero
` + fence + `sysy-ast
(program (func "main" int (block (return 0))))
` + fence + `
` + fence + `execute
0
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 2)

	tc1 := testCases[0]
	be.Equal(t, tc1.Name, "return literal")
	be.Equal(t, tc1.Input, `(program (func "main" int (block (return 1))))`)
	be.Equal(t, tc1.InputType, InputTypeSysYAST)
	be.Equal(t, tc1.Line, 3)
	be.Equal(t, len(tc1.Assertions), 1)
	be.Equal(t, tc1.Assertions[0].Type, AssertionTypeKoopa)
	be.Equal(t, tc1.Assertions[0].Content, "fun @main(): i32 {\n%entry:\n   %0 = add 0, 1\n   ret %0\n}")
	be.True(t, tc1.Assertions[0].ParsedSexy == nil)

	tc2 := testCases[1]
	be.Equal(t, tc2.Name, "return zero")
	be.Equal(t, len(tc2.Assertions), 1)
	be.Equal(t, tc2.Assertions[0].Type, AssertionTypeExecute)
	be.Equal(t, tc2.Assertions[0].Content, "0")
}

func TestExtractTestCases_MultipleAssertions(t *testing.T) {
	markdown := `## Test: several
` + fence + `sysy-ast
(program (func "main" int (block (return (binary "+" 1 2)))))
` + fence + `
` + fence + `ast
(program
  (func "main" int
    (block (return (binary "+" 1 2)))))
` + fence + `
` + fence + `execute
3
` + fence + `
` + fence + `llvm
define i32 @main()
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)

	tc := testCases[0]
	be.Equal(t, len(tc.Assertions), 3)
	be.Equal(t, tc.Assertions[0].Type, AssertionTypeAST)
	be.Equal(t, tc.Assertions[0].ParsedSexy.String(), `(program (func "main" int (block (return (binary "+" 1 2)))))`)
	be.Equal(t, tc.Assertions[1].Type, AssertionTypeExecute)
	be.Equal(t, tc.Assertions[2].Type, AssertionTypeLLVM)
	be.Equal(t, tc.Assertions[2].Content, "define i32 @main()")
}

func TestExtractTestCases_EmptyFile(t *testing.T) {
	testCases, err := ExtractTestCases("")
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_NoTestCases(t *testing.T) {
	markdown := `# Some document

This is just regular markdown content.

## Regular heading

No test cases here.`

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 0)
}

func TestExtractTestCases_InvalidSexyAssertion(t *testing.T) {
	markdown := `## Test: invalid sexy
` + fence + `sysy-ast
(program)
` + fence + `
` + fence + `ast
(unclosed list
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "failed to parse Sexy assertion"))
	be.True(t, strings.Contains(err.Error(), "line 6"))
}

func TestExtractTestCases_FenceOutsideTestCase(t *testing.T) {
	tests := []struct {
		name      string
		markdown  string
		fenceType string
	}{
		{"input", "# Document\n\n```sysy-ast\n(program)\n```\n", "sysy-ast"},
		{"koopa", "# Document\n\n```koopa\nfun @main() {\n}\n```\n", "koopa"},
		{"compile-error", "# Document\n\n```compile-error\nMissingReturn\n```\n", "compile-error"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractTestCases(test.markdown)
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), test.fenceType+" fence found outside of test case"))
			be.True(t, strings.Contains(err.Error(), "line 4"))
		})
	}
}

func TestExtractTestCases_UnknownFenceInTest(t *testing.T) {
	markdown := `## Test: with unknown fence
` + fence + `sysy-ast
(program)
` + fence + `
` + fence + `python
print("hello")
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'python' in test 'with unknown fence'"))
}

func TestExtractTestCases_UnknownFenceOutsideTest(t *testing.T) {
	markdown := "# Document\n\n```go\nfunc main() {}\n```"

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "unknown fence language 'go' found outside of test case"))
}

func TestExtractTestCases_TestMissingInputFence(t *testing.T) {
	markdown := `## Test: no input
` + fence + `koopa
fun @main() {
}
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no input' has no input fence"))
}

func TestExtractTestCases_TestMissingAssertionFence(t *testing.T) {
	markdown := `## Test: no assertions
` + fence + `sysy-ast
(program)
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'no assertions' has no assertion fences"))
}

func TestExtractTestCases_MultipleInputFences(t *testing.T) {
	markdown := `## Test: multiple inputs
` + fence + `sysy-ast
(program)
` + fence + `
` + fence + `sysy-ast
(program)
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "multiple input fences found in test 'multiple inputs'"))
}

func TestExtractTestCases_AllowFencesWithoutLanguage(t *testing.T) {
	markdown := `# Document with generic code block

` + fence + `
some code without language
` + fence + `

## Test: valid test
` + fence + `sysy-ast
(program)
` + fence + `
` + fence + `execute
0
` + fence + `

` + fence + `
more prose code in a test
` + fence

	testCases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(testCases), 1)
	be.Equal(t, testCases[0].Name, "valid test")
	be.Equal(t, len(testCases[0].Assertions), 1)
}

func TestExtractTestCases_ErrorInSecondTest(t *testing.T) {
	markdown := `## Test: first test
` + fence + `sysy-ast
(program)
` + fence + `
` + fence + `execute
0
` + fence + `

## Test: second test missing input
` + fence + `execute
0
` + fence

	_, err := ExtractTestCases(markdown)
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "test 'second test missing input' has no input fence"))
}
