// Package tui renders workflow state for terminals.
package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/treetrim/pkg/domain"
)

// StateMarkdown renders the inspection view of a state as markdown:
// the node summary, the numbered reasons and the staged change.
func StateMarkdown(s domain.WorkflowState) string {
	var b strings.Builder

	if s.ActiveNode == nil {
		b.WriteString("_No node selected._\n")
		return b.String()
	}

	title := "Node"
	if s.ActiveNode.ID != "" {
		title += " " + s.ActiveNode.ID
	}
	if s.ActiveNode.IsLeaf {
		title += " (leaf)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, line := range s.ActiveNode.Summary() {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	if !s.Trimmable() {
		b.WriteString("\n> The root node cannot be trimmed.\n")
		return b.String()
	}

	b.WriteString("\n## Why trim this node?\n\n")
	for i, r := range s.OfferedReasons {
		marker := ""
		if r.ID == s.StagedReason {
			marker = " **(selected)**"
		}
		fmt.Fprintf(&b, "%d. %s `%s`%s\n", i+1, r.DisplayText, r.ID, marker)
	}

	if s.Staged != nil {
		fmt.Fprintf(&b, "\n**Staged:** set `%s` to `%v`\n", s.Staged.Parameter, s.Staged.Value)
	}
	return b.String()
}

// TrainingMarkdown renders the hyperparameters of a retrain and its evaluation.
func TrainingMarkdown(p domain.Hyperparameters, s *domain.TrainingSummary) string {
	var b strings.Builder
	b.WriteString("# Retrained\n\n")
	fmt.Fprintf(&b, "| criterion | max_depth | min_samples_split | min_samples_leaf | min_impurity_decrease |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %d | %d | %d | %v |\n", p.Criterion, p.MaxDepth, p.MinSamplesSplit, p.MinSamplesLeaf, p.MinImpurityDecrease)

	if s == nil || len(s.ClassLabels) == 0 {
		return b.String()
	}

	b.WriteString("\n## Confusion matrix\n\n| |")
	for _, l := range s.ClassLabels {
		fmt.Fprintf(&b, " %s |", l)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(s.ClassLabels)))
	b.WriteString("\n")
	for i, row := range s.ConfusionMatrix {
		label := ""
		if i < len(s.ClassLabels) {
			label = s.ClassLabels[i]
		}
		fmt.Fprintf(&b, "| **%s** |", label)
		for _, v := range row {
			fmt.Fprintf(&b, " %d |", v)
		}
		b.WriteString("\n")
	}

	if len(s.ImportantFeatures) > 0 {
		b.WriteString("\n## Important features\n\n")
		for _, f := range s.ImportantFeatures {
			fmt.Fprintf(&b, "- %s: %.4f\n", f.Feature, f.Score)
		}
	}
	return b.String()
}
