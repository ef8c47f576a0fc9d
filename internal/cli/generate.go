package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shouni/couplai/pkg/archive"
	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/orchestrator"
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a profile and gallery, then save the ZIP",
		Long:  "Run the whole flow once: profile image, gallery batches, archive export to --out.",
		Run:   runGenerate,
	}
	cmd.Flags().StringP("photo", "p", "", "Path to the source photo (required)")
	cmd.Flags().StringP("style", "s", "", "Style ID from the catalog (required)")
	cmd.Flags().StringP("name", "n", "", "Name shown in the viewer and used for the ZIP name")
	cmd.Flags().StringP("out", "o", "", "Output directory (default: $OUTPUT_DIR)")
	_ = cmd.MarkFlagRequired("photo")
	_ = cmd.MarkFlagRequired("style")

	RootCmd.AddCommand(cmd)
}

type generateSummary struct {
	Archive   string `json:"archive"`
	Style     string `json:"style"`
	Images    int    `json:"images"`
	Failed    int    `json:"failed"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

func runGenerate(cmd *cobra.Command, args []string) {
	photo, _ := cmd.Flags().GetString("photo")
	styleID, _ := cmd.Flags().GetString("style")
	name, _ := cmd.Flags().GetString("name")
	out, _ := cmd.Flags().GetString("out")

	ctx := cmd.Context()
	a, err := newApp(ctx, os.Stderr, false)
	if err != nil {
		exitErr("init", err)
	}
	if out == "" {
		out = a.cfg.OutputDir
	}

	data, err := os.ReadFile(photo)
	if err != nil {
		exitErr("read photo", err)
	}
	src, err := domain.NewSourceImage(filepath.Base(photo), "", data)
	if err != nil {
		exitErr("read photo", err)
	}
	style, ok := a.catalog.Find(styleID)
	if !ok {
		exitErr("find style", fmt.Errorf("unknown style: %q", styleID))
	}

	obs := orchestrator.ObserverFuncs{
		Progress: func(p orchestrator.Progress) {
			fmt.Fprintf(os.Stderr, "\r生成中... %3.0f%% (%d/%d)", p.Percent, p.Completed, p.Total)
			if p.Completed == p.Total {
				fmt.Fprintln(os.Stderr)
			}
		},
	}
	res, err := a.orchestrator.GenerateAll(ctx, src, style, obs)
	if err != nil {
		exitErr("generate", err)
	}
	if res.Gallery.Len() == 0 && res.Profile == "" {
		exitErr("generate", errors.New("no image was generated"))
	}

	in := archive.InputFromGallery(res.Gallery, res.Profile, src, style.Label(), name)
	location, err := a.builder.Export(ctx, in, archive.DiskSaver{Dir: out})
	if err != nil {
		exitErr("export", err)
	}

	summary := generateSummary{
		Archive:   location,
		Style:     style.ID,
		Images:    res.Gallery.Len(),
		Failed:    res.Failed,
		Completed: res.Completed,
		Total:     res.Total,
	}
	if formatFlag == "json" {
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("saved %s (%d gallery images, %d failed)\n", summary.Archive, summary.Images, summary.Failed)
}
