package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artemshloyda/imageresizer/internal/nautilus"
)

func (a *app) installer() (*nautilus.Installer, error) {
	home, err := a.homeDir()
	if err != nil {
		return nil, fmt.Errorf("не удалось определить домашнюю директорию: %w", err)
	}
	exe, err := a.executable()
	if err != nil {
		return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
	}

	inst := nautilus.NewInstaller(home, exe)
	inst.Out = a.stdout
	inst.SetRunner(a.runner)
	return inst, nil
}

// newInstallCmd создаёт команду install.
func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Добавить «" + nautilus.ScriptName + "» в меню Nautilus",
		Long: `Создаёт ссылку на этот бинарник в ~/.local/share/nautilus/scripts
и перезапускает Nautilus. Пункт появится в контекстном меню файла
в разделе «Сценарии».`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.installer()
			if err != nil {
				return err
			}
			return inst.Install(cmd.Context())
		},
	}
}

// newUninstallCmd создаёт команду uninstall.
func newUninstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Удалить пункт меню Nautilus",
		Long: `Удаляет ссылку из ~/.local/share/nautilus/scripts, а также файлы
старого python-расширения (пользовательские и системные).
Завершается с ошибкой, если ничего не было удалено.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := a.installer()
			if err != nil {
				return err
			}

			removed, err := inst.Uninstall(cmd.Context())
			if errors.Is(err, nautilus.ErrNothingRemoved) {
				fmt.Fprintln(a.stdout, "ℹ️  Файлы расширения не найдены")
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "✅ Удаление завершено (%d)\n", removed)
			return nil
		},
	}
}
