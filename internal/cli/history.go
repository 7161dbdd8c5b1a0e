package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/imageresizer/internal/storage"
)

// newHistoryCmd создаёт команду history.
func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Показать историю изменений размера",
		Long: `Показывает последние записи и статистику из базы истории.

История ведётся, только если задан путь paths.history_db в конфиге
или флаг --history-db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.HistoryDB == "" {
				return fmt.Errorf("история отключена: укажите путь через --history-db или paths.history_db")
			}

			store, err := storage.New(a.cfg.HistoryDB)
			if err != nil {
				return fmt.Errorf("не удалось открыть БД: %w", err)
			}
			defer func() { _ = store.Close() }()

			st, err := store.GetStats()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "📊 Статистика истории:\n")
			fmt.Fprintf(a.stdout, "   Всего записей: %d\n", st.Total)
			fmt.Fprintf(a.stdout, "   Успешно: %d\n", st.OK)
			fmt.Fprintf(a.stdout, "   Ошибок: %d\n", st.Failed)
			fmt.Fprintf(a.stdout, "   В процессе: %d\n", st.InProgress)

			records, err := store.Recent(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return nil
			}

			fmt.Fprintln(a.stdout)
			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tВРЕМЯ\tСТАТУС\tРАЗМЕР\tИСТОЧНИК\tРЕЗУЛЬТАТ")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					shortID(r.ID),
					r.StartedAt.Format("2006-01-02 15:04:05"),
					statusText(r),
					r.Token,
					r.SrcPath,
					r.DstPath,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Количество записей")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusText(r storage.Record) string {
	switch r.Status {
	case storage.StatusOK:
		return fmt.Sprintf("ok (%s)", r.Duration().Round(time.Millisecond))
	case storage.StatusFailed:
		if r.ErrorKind != nil {
			return "failed: " + *r.ErrorKind
		}
		return "failed"
	}
	return string(r.Status)
}
