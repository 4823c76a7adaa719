package certificate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

const shareTitle = "My QuizPlatform certificate"

// ErrShareCancelled is returned by a native sharer when the user backs out.
// It stops the fallback chain.
var ErrShareCancelled = errors.New("share cancelled")

type Channel string

const (
	ChannelNative    Channel = "native"
	ChannelClipboard Channel = "clipboard"
	ChannelLegacy    Channel = "legacy"
)

func ShareText(cert Certificate) string {
	return fmt.Sprintf("I earned a certificate for %q with %d%% on QuizPlatform!", cert.QuizTitle, cert.ScorePercentage)
}

// Sharer hands the text to a platform share facility.
type Sharer interface {
	Share(ctx context.Context, title, text string) error
}

// CommandSharer pipes the share text into an external program.
type CommandSharer struct {
	Command string
}

func (s CommandSharer) Share(ctx context.Context, title, text string) error {
	fields := strings.Fields(s.Command)
	if len(fields) == 0 {
		return errors.New("share command is empty")
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdin = strings.NewReader(title + "\n" + text + "\n")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("share command failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ShareChain tries the native sharer, then the clipboard, then prints the text
// to Legacy for a manual copy. Nil steps are skipped.
type ShareChain struct {
	Native    Sharer
	Clipboard func(text string) error
	Legacy    io.Writer
}

func NewShareChain(native Sharer, legacy io.Writer) ShareChain {
	chain := ShareChain{Native: native, Legacy: legacy}
	if !clipboard.Unsupported {
		chain.Clipboard = clipboard.WriteAll
	}
	return chain
}

func (c ShareChain) Share(ctx context.Context, cert Certificate) (Channel, error) {
	text := ShareText(cert)
	var failures []error

	if c.Native != nil {
		err := c.Native.Share(ctx, shareTitle, text)
		if err == nil {
			return ChannelNative, nil
		}
		if errors.Is(err, ErrShareCancelled) {
			return "", err
		}
		failures = append(failures, err)
	}

	if c.Clipboard != nil {
		err := c.Clipboard(text)
		if err == nil {
			return ChannelClipboard, nil
		}
		failures = append(failures, fmt.Errorf("clipboard: %w", err))
	}

	if c.Legacy != nil {
		_, err := fmt.Fprintln(c.Legacy, text)
		if err == nil {
			return ChannelLegacy, nil
		}
		failures = append(failures, err)
	}

	if len(failures) == 0 {
		return "", errors.New("no share channel configured")
	}
	return "", errors.Join(failures...)
}
