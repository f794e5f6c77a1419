// Command svgedit normalizes, combines and exports SVG documents
// the way the editor does.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benoitkugler/svgedit/imagecache"
	"github.com/benoitkugler/svgedit/svgcanvas"
	"github.com/benoitkugler/svgedit/svgexport"
)

type options struct {
	config  string
	verbose bool
	output  string
	timeout time.Duration
}

func (o *options) logger() (*zap.Logger, error) {
	if o.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// session loads the document at path in a new canvas, with relative
// images resolved against its directory.
type session struct {
	log    *zap.Logger
	images *imagecache.Cache
	canvas *svgcanvas.Canvas
}

func (o *options) open(path string) (*session, error) {
	log, err := o.logger()
	if err != nil {
		return nil, err
	}
	cfg := svgcanvas.DefaultConfig()
	if o.config != "" {
		if cfg, err = svgcanvas.LoadConfig(o.config); err != nil {
			return nil, err
		}
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	images := imagecache.New(
		imagecache.WithLogger(log),
		imagecache.WithFS(os.DirFS(filepath.Dir(path))),
		imagecache.WithTimeout(o.timeout),
	)
	canvas := svgcanvas.New(
		svgcanvas.WithConfig(cfg),
		svgcanvas.WithLogger(log),
		svgcanvas.WithImageCache(images),
	)
	if err := canvas.SetSVGString(string(text), true); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return &session{log: log, images: images, canvas: canvas}, nil
}

// windowName is the exported file name, empty for the standard output.
func (o *options) windowName() string {
	if o.output == "" || o.output == "-" {
		return ""
	}
	return filepath.Base(o.output)
}

func (o *options) write(data []byte) error {
	if o.windowName() == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(o.output, data, 0o644)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "svgedit",
		Short:        "Normalize, combine and export SVG documents",
		SilenceUsage: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.config, "config", "", "TOML configuration file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "development logging")
	flags.StringVarP(&opts.output, "output", "o", "-", "output file")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "image loading timeout")

	root.AddCommand(newNormalizeCmd(opts), newImportCmd(opts), newExportCmd(opts))
	return root
}

func newNormalizeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <file.svg>",
		Short: "Write the canonical form of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.log.Sync()
			s.images.Wait()
			return opts.write([]byte(s.canvas.SVGCanvasToString()))
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	var preserveDimensions bool
	cmd := &cobra.Command{
		Use:   "import <base.svg> <file.svg>...",
		Short: "Import documents as symbols in a base document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.log.Sync()
			for _, path := range args[1:] {
				text, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if _, err := s.canvas.ImportSVGString(string(text), preserveDimensions); err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}
			}
			s.images.Wait()
			return opts.write([]byte(s.canvas.SVGCanvasToString()))
		},
	}
	cmd.Flags().BoolVar(&preserveDimensions, "preserve-dimensions", false, "keep the size of the imported documents")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		format   string
		quality  float64
		mode     string
		noLayers bool
	)
	cmd := &cobra.Command{
		Use:   "export <file.svg>",
		Short: "Export a document as an image or a PDF file",
		Long: "Export a document as PNG, JPEG, BMP, WEBP or ICO image,\n" +
			"as a PDF file embedding one image (pdf) or as a layered PDF file (advanced-pdf).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(args[0])
			if err != nil {
				return err
			}
			defer s.log.Sync()
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			ex := svgexport.New(s.canvas, svgexport.WithLogger(s.log), svgexport.WithImages(s.images))
			var (
				data []byte
				diag svgexport.Diagnostics
			)
			switch strings.ToLower(format) {
			case "pdf":
				res, err := ex.ExportPDF(ctx, opts.windowName())
				if err != nil {
					return err
				}
				data, diag = res.Data, res.Diagnostics
			case "advanced-pdf":
				advanced := svgexport.AdvancedOptions{
					PreserveLayers: !noLayers,
					VectorMode:     svgexport.VectorMode(mode),
				}
				res, err := ex.ExportAdvancedPDF(ctx, opts.windowName(), advanced)
				if err != nil {
					return err
				}
				data, diag = res.Data, res.Diagnostics
			default:
				res, err := ex.RasterExport(ctx, format, quality, opts.windowName(), svgexport.RasterOptions{AvoidEvent: true})
				if err != nil {
					return err
				}
				blob, _ := ex.Blobs().Get(res.BlobURL)
				ex.Blobs().Revoke(res.BlobURL)
				data, diag = blob.Data, res.Diagnostics
			}
			for i, issue := range diag.Issues {
				s.log.Warn("export issue", zap.String("code", diag.IssueCodes[i]), zap.String("issue", issue))
			}
			return opts.write(data)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", "png", "png, jpeg, bmp, webp, ico, pdf or advanced-pdf")
	flags.Float64VarP(&quality, "quality", "q", 1, "JPEG quality, in ]0, 1]")
	flags.StringVar(&mode, "mode", string(svgexport.Hybrid), "advanced PDF vector mode: pure, hybrid or raster")
	flags.BoolVar(&noLayers, "no-layers", false, "do not write layers as optional content groups")
	return cmd
}
