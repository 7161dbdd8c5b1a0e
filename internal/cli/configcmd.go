package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/imageresizer/internal/config"
)

// newConfigCmd создаёт команду config.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Работа с файлом конфигурации",
	}

	var (
		output string
		force  bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Сгенерировать пример файла конфигурации",
		Long: `Печатает пример конфигурации или записывает его в файл.

Примеры:
  imageresizer config init
  imageresizer config init -o ~/.config/imageresizer/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			example := config.GenerateExampleConfig()
			if output == "" {
				fmt.Fprint(a.stdout, example)
				return nil
			}

			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("файл %s уже существует (используйте --force)", output)
			}
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("не удалось создать директорию: %w", err)
			}
			if err := os.WriteFile(output, []byte(example), 0644); err != nil {
				return fmt.Errorf("не удалось записать %s: %w", output, err)
			}
			fmt.Fprintf(a.stdout, "✅ Конфигурация записана: %s\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "", "Записать в файл вместо вывода")
	initCmd.Flags().BoolVar(&force, "force", false, "Перезаписать существующий файл")

	cmd.AddCommand(initCmd)
	return cmd
}
