// Пакет termsize — ширина терминала для усечения вывода.
package termsize

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// Width — ширина stdout в колонках; при отсутствии терминала — $COLUMNS, иначе 0.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fromEnv(os.Getenv("COLUMNS"))
}

func fromEnv(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
