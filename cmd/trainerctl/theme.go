package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trainerapp/internal/adapters/imagedecode"
	"trainerapp/internal/domain/theme"
)

type paletteOutput struct {
	theme.Palette
	IsDark bool `json:"is_dark"`
}

func paletteLines(p theme.Palette, dark bool) []string {
	return []string{
		"primary     " + p.Primary,
		"secondary   " + p.Secondary,
		"background  " + p.Background,
		"text        " + p.Text,
		"dark        " + strconv.FormatBool(dark),
	}
}

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Derive and inspect brand palettes",
	}

	derive := &cobra.Command{
		Use:     "derive HEX",
		Short:   "Derive the four-colour palette from a primary colour",
		Example: "  trainerctl theme derive '#2563eb'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := theme.GenerateCompleteTheme(args[0])
			if err != nil {
				return err
			}
			dark := theme.IsDarkTheme(p.Background)
			return printResult(cmd, paletteOutput{Palette: p, IsDark: dark}, paletteLines(p, dark)...)
		},
	}

	isDark := &cobra.Command{
		Use:   "is-dark HEX",
		Short: "Report whether a background colour needs light text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dark := theme.IsDarkTheme(args[0])
			lum := theme.RelativeLuminance(args[0])
			return printResult(cmd, map[string]any{"is_dark": dark, "luminance": lum},
				fmt.Sprintf("%t (luminance %.4f)", dark, lum))
		},
	}

	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "List the built-in preset themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := make([]string, len(theme.Catalog))
			for i, p := range theme.Catalog {
				lines[i] = fmt.Sprintf("%-12s %-12s %s on %s", p.ID, p.Name, p.Palette.Primary, p.Palette.Background)
			}
			return printResult(cmd, theme.Catalog, lines...)
		},
	}

	cmd.AddCommand(derive, isDark, catalog, newPickCmd())
	return cmd
}

func newPickCmd() *cobra.Command {
	var width, height float64
	cmd := &cobra.Command{
		Use:   "pick LOGO X Y",
		Short: "Sample a logo pixel and derive the palette from it",
		Long: `Pick reads the colour under (X, Y) on a logo file or http(s) URL and derives the
palette from it. Coordinates are native pixels unless --width and --height give the
size the logo was displayed at, in which case they are scaled like a click in the app.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid X %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid Y %q", args[2])
			}
			img, err := loadLogo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b := img.Bounds()
			if err := theme.ValidateDimensions(b.Dx(), b.Dy()); err != nil {
				return err
			}

			px, py := int(x), int(y)
			if width > 0 && height > 0 {
				px, py = theme.ScaleToNative(x, y, width, height, b.Dx(), b.Dy())
			}
			c, ok := theme.ColorAtPixel(img, px, py)
			if !ok {
				return fmt.Errorf("pixel (%d, %d) is outside the %dx%d logo", px, py, b.Dx(), b.Dy())
			}
			p, err := theme.GenerateCompleteTheme(c.Hex())
			if err != nil {
				return err
			}
			dark := theme.IsDarkTheme(p.Background)
			return printResult(cmd, paletteOutput{Palette: p, IsDark: dark}, paletteLines(p, dark)...)
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "width the logo was displayed at")
	cmd.Flags().Float64Var(&height, "height", 0, "height the logo was displayed at")
	return cmd
}

func loadLogo(ctx context.Context, ref string) (image.Image, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if ctx == nil {
			ctx = context.Background()
		}
		return imagedecode.New(nil, nil, "").Load(ctx, ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, err
	}
	img, _, err := imagedecode.DecodeBytes(ref, data)
	return img, err
}
