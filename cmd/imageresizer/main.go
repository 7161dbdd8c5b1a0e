// Команда imageresizer изменяет размер изображений через ImageMagick.
package main

import "github.com/artemshloyda/imageresizer/internal/cli"

func main() {
	cli.Execute()
}
