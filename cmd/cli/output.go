package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sevigo/codesage/internal/core"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

// stepTimer tracks timing for verbose output
type stepTimer struct {
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
	quiet      bool
}

func newStepTimer(totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{totalSteps: totalSteps, verbose: verbose}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.quiet {
		return
	}
	if t.verbose {
		titleColor.Printf("\n🔧 Step %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Printf("%s...\n", name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose && !t.quiet {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Printf("   ✓ Done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Printf("   └── %s\n", d)
		}
	}
}

func printReview(result *core.ReviewResult) {
	separator := strings.Repeat("═", 60)
	thinSeparator := strings.Repeat("─", 60)

	fmt.Println()
	titleColor.Println(separator)
	titleColor.Println("📋 REVIEW")
	titleColor.Println(separator)
	dimColor.Printf("Request ID: %s\n\n", result.RequestID)
	infoColor.Println(strings.TrimSpace(result.ReviewText))

	if len(result.Findings) == 0 && len(result.Suggestions) == 0 {
		fmt.Println()
		successColor.Println("✅ No structured findings.")
		return
	}

	if len(result.Findings) > 0 {
		fmt.Println()
		errorColor.Println(thinSeparator)
		errorColor.Printf("🐞 POTENTIAL BUGS (%d)\n", len(result.Findings))
		errorColor.Println(thinSeparator)
		for _, f := range result.Findings {
			fmt.Println()
			printSeverityBadge(f.Severity)
			boldColor.Printf(" line %d\n", f.Line)
			infoColor.Printf("   %s\n", f.Description)
			if f.Suggestion != "" {
				dimColor.Printf("   Fix: %s\n", f.Suggestion)
			}
		}
	}

	if len(result.Suggestions) > 0 {
		fmt.Println()
		warnColor.Println(thinSeparator)
		warnColor.Printf("💡 SUGGESTIONS (%d)\n", len(result.Suggestions))
		warnColor.Println(thinSeparator)
		for i, s := range result.Suggestions {
			fmt.Println()
			infoColor.Printf("%d. %s\n", i+1, s.Description)
			if s.CodeSnippet != "" {
				dimColor.Println(s.CodeSnippet)
			}
		}
	}
	fmt.Println()
}

func printSeverityBadge(severity core.Severity) {
	label := strings.ToUpper(string(severity))
	switch severity {
	case core.SeverityHigh:
		color.New(color.BgRed, color.FgWhite, color.Bold).Printf(" %s ", label)
	case core.SeverityMedium:
		color.New(color.BgYellow, color.FgBlack).Printf(" %s ", label)
	case core.SeverityLow:
		color.New(color.BgGreen, color.FgWhite).Printf(" %s ", label)
	default:
		color.New(color.BgWhite, color.FgBlack).Printf(" %s ", label)
	}
}
