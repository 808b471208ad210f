package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/sysyc/sysyc/ast"
	"github.com/sysyc/sysyc/koopa"
	"github.com/sysyc/sysyc/llvmgen"
	"github.com/sysyc/sysyc/lower"
	"github.com/sysyc/sysyc/sexy"
)

func TestSexyAllTests(t *testing.T) {
	// Find all test files in the test/ directory
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) != 0)

	for _, testFile := range testFiles {
		fileName := filepath.Base(testFile)
		testName := strings.TrimSuffix(fileName, ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					runTestCase(t, tc)
				})
			}
		})
	}
}

func runTestCase(t *testing.T, tc sexy.TestCase) {
	if tc.InputType != sexy.InputTypeSysYAST {
		t.Fatalf("Unknown input type: %s", tc.InputType)
	}

	ctx := context.Background()

	p, err := ast.Parse(tc.Input)
	be.Err(t, err, nil)

	prog, lowerErr := lower.Lower(ctx, p)

	for i, assertion := range tc.Assertions {
		t.Run("assertion_"+string(rune('a'+i)), func(t *testing.T) {
			switch assertion.Type {
			case sexy.AssertionTypeAST:
				be.Equal(t, ast.ToSExpr(p), assertion.ParsedSexy.String())

			case sexy.AssertionTypeCompileError:
				var e *lower.Error
				if !errors.As(lowerErr, &e) {
					t.Fatalf("line %d: expected %s, got %v", assertion.Line, assertion.Content, lowerErr)
				}
				be.Equal(t, e.Kind.String(), strings.TrimSpace(assertion.Content))

			case sexy.AssertionTypeKoopa:
				requireLowered(t, prog, lowerErr)
				be.Equal(t, strings.TrimRight(prog.String(), "\n"), assertion.Content)

			case sexy.AssertionTypeExecute:
				requireLowered(t, prog, lowerErr)

				want, err := strconv.ParseInt(strings.TrimSpace(assertion.Content), 10, 32)
				be.Err(t, err, nil)

				got, err := execute(ctx, prog)
				be.Err(t, err, nil)
				be.Equal(t, got, int32(want))

			case sexy.AssertionTypeLLVM:
				requireLowered(t, prog, lowerErr)

				out, err := llvmgen.Emit(ctx, prog)
				be.Err(t, err, nil)

				for _, line := range strings.Split(assertion.Content, "\n") {
					line = strings.TrimSpace(line)
					if line != "" && !strings.Contains(out, line) {
						t.Errorf("line %d: missing %q in:\n%s", assertion.Line, line, out)
					}
				}

			default:
				t.Fatalf("Unknown assertion type: %s", assertion.Type)
			}
		})
	}
}

func requireLowered(t *testing.T, prog *koopa.Program, err error) {
	t.Helper()

	be.Err(t, err, nil)
	be.Err(t, koopa.Verify(prog), nil)
}
