package cli

import (
	"fmt"
	"io"

	"github.com/bnema/sitehost/internal/adapters/in/cli/ui/styles"
	"github.com/bnema/sitehost/internal/domain"
)

var cliWriteLine = func(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func cliRenderTitle(msg string) string {
	return styles.Theme.Title.Render(msg)
}

func cliRenderMuted(msg string) string {
	return styles.Theme.Muted.Render(msg)
}

func cliRenderMeta(label, value string) string {
	return styles.Theme.Bold.Render(label) + " " + styles.Theme.Muted.Render(value)
}

func cliRenderURL(url string) string {
	return styles.Theme.URL.Render(url)
}

func cliRenderSuccess(msg string) string {
	return styles.RenderSuccess(msg)
}

func cliRenderWarning(msg string) string {
	return styles.RenderWarning(msg)
}

func cliRenderInfo(msg string) string {
	return styles.RenderInfo(msg)
}

// cliRenderFailure describes a failed operation with its error kind.
func cliRenderFailure(action string, err error) string {
	kind := domain.KindOf(err)
	return styles.RenderError(fmt.Sprintf("%s failed [%s]: %v", action, kind, err))
}
