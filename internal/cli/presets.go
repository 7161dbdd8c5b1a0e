package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/imageresizer/internal/sizing"
)

// newPresetsCmd создаёт команду для списка пресетов.
func newPresetsCmd(a *app) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Показать пресеты размеров",
		Long: `Показывает пресеты в порядке выпадающего списка.

Процентные пресеты считаются от исходных размеров, фиксированные задают
размеры напрямую. С флагом --from показывается результат для указанного
исходного размера.

Примеры:
  imageresizer presets
  imageresizer presets --from 4000x3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var original sizing.Dimensions
			if from != "" {
				d, err := sizing.ParseDimensions(from)
				if err != nil {
					return err
				}
				original = d
			}

			fmt.Fprintf(a.stdout, "📦 Пресеты (%d):\n\n", len(sizing.AllPresets()))

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			if original.Known() {
				fmt.Fprintf(w, "ИМЯ\tНАЗВАНИЕ\tРЕЗУЛЬТАТ (%s)\n", original)
			} else {
				fmt.Fprintln(w, "ИМЯ\tНАЗВАНИЕ\tРЕЗУЛЬТАТ")
			}
			fmt.Fprintln(w, "---\t--------\t---------")

			for _, p := range sizing.AllPresets() {
				result := "-"
				if d, ok := sizing.Resolve(p, original); ok {
					result = d.String()
				} else if p.IsPercentage() {
					result = "от исходного"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", p, p.Label(), result)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Исходные размеры WxH для расчёта")

	return cmd
}
