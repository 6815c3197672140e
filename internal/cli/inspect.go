package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/treetrim"
	"github.com/aretw0/treetrim/internal/presentation/graph"
	"github.com/aretw0/treetrim/internal/presentation/tui"
	"github.com/aretw0/treetrim/pkg/domain"
	"github.com/aretw0/treetrim/pkg/snapshot"
)

// InspectOptions drives one inspection of a node payload file.
type InspectOptions struct {
	Path    string
	Reason  string
	Confirm bool
	// Format is markdown, mermaid or json.
	Format string
	// Interactive prompts on In for the reason and the confirmation.
	Interactive bool
	// Pretty renders markdown through glamour.
	Pretty bool

	In  io.Reader
	Out io.Writer
}

// Inspect selects the node in path, stages a reason and optionally retrains.
func Inspect(ctx context.Context, svc *Services, opts InspectOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return fmt.Errorf("read node: %w", err)
	}
	node, err := snapshot.DecodeJSON(data)
	if err != nil {
		return err
	}

	wf, err := treetrim.New(svc.Gateway.For(svc.Config.Model),
		treetrim.WithCatalog(svc.Catalog),
		treetrim.WithLogger(svc.Logger),
		treetrim.WithLifecycleHooks(svc.Metrics.Hooks()),
	)
	if err != nil {
		return err
	}
	if err := wf.SelectNode(ctx, node); err != nil {
		return err
	}

	render, err := newView(opts)
	if err != nil {
		return err
	}
	if err := render(wf.State()); err != nil {
		return err
	}
	if !wf.State().Trimmable() {
		return nil
	}

	in := bufio.NewReader(opts.In)

	reason := domain.ReasonID(opts.Reason)
	if reason == "" && opts.Interactive {
		reason, err = promptReason(in, opts.Out, wf.State().OfferedReasons)
		if err != nil || reason == "" {
			return err
		}
	}
	if reason == "" {
		return nil
	}
	if err := wf.SelectReason(ctx, reason); err != nil {
		return err
	}
	if err := render(wf.State()); err != nil {
		return err
	}

	confirm := opts.Confirm
	if !confirm && opts.Interactive {
		staged := wf.State().Staged
		confirm, err = promptYesNo(in, opts.Out,
			fmt.Sprintf("Retrain with %s = %v? [y/N] ", staged.Parameter, staged.Value))
		if err != nil {
			return err
		}
	}
	if !confirm {
		wf.Cancel(ctx)
		return nil
	}

	if err := wf.ConfirmRetrain(ctx); err != nil {
		return err
	}
	fmt.Fprintln(opts.Out, "Retraining...")
	svc.Gateway.Wait()

	res, ok := svc.Gateway.LastResult(svc.Config.Model)
	if !ok {
		return nil
	}
	if res.Err != nil {
		return fmt.Errorf("retrain failed: %w", res.Err)
	}
	return renderMarkdown(opts, tui.TrainingMarkdown(res.Parameters, res.Summary))
}

func newView(opts InspectOptions) (func(domain.WorkflowState) error, error) {
	switch opts.Format {
	case "", "markdown":
		return func(s domain.WorkflowState) error {
			return renderMarkdown(opts, tui.StateMarkdown(s))
		}, nil
	case "mermaid":
		return func(s domain.WorkflowState) error {
			_, err := fmt.Fprint(opts.Out, graph.GenerateMermaid(s))
			return err
		}, nil
	case "json":
		enc := json.NewEncoder(opts.Out)
		enc.SetIndent("", "  ")
		return func(s domain.WorkflowState) error {
			return enc.Encode(s)
		}, nil
	}
	return nil, fmt.Errorf("unknown format %q (supported: markdown, mermaid, json)", opts.Format)
}

func renderMarkdown(opts InspectOptions, md string) error {
	if opts.Pretty {
		render, err := tui.NewRenderer("auto")
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := fmt.Fprintln(opts.Out, md)
	return err
}

// promptReason reads a 1-based choice. Empty input (or EOF) selects nothing.
func promptReason(in *bufio.Reader, out io.Writer, reasons []domain.TrimReason) (domain.ReasonID, error) {
	for {
		fmt.Fprintf(out, "Reason [1-%d, empty to quit]: ", len(reasons))
		line, err := in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil && err != io.EOF {
				return "", err
			}
			return "", nil
		}

		n, convErr := strconv.Atoi(line)
		if convErr == nil && n >= 1 && n <= len(reasons) {
			return reasons[n-1].ID, nil
		}
		for _, r := range reasons {
			if string(r.ID) == line {
				return r.ID, nil
			}
		}
		fmt.Fprintf(out, "Invalid choice %q\n", line)
		if err == io.EOF {
			return "", nil
		}
	}
}

func promptYesNo(in *bufio.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

