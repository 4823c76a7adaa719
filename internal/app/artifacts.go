package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"quiz-client/internal/certificate"
	"quiz-client/internal/export"
	"quiz-client/internal/quiz"
)

// Downloader stores a generated file and reports where it went.
type Downloader interface {
	Save(name string, data []byte) (string, error)
}

// DirDownloader writes files into Dir, creating it when needed.
type DirDownloader struct {
	Dir string
}

func (d DirDownloader) Save(name string, data []byte) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ExportResults saves the attempt history started within [from, to] (zero
// bounds are open) as CSV or JSON and returns the saved path.
func (c *Controller) ExportResults(ctx context.Context, format export.Format, from, to time.Time) (string, error) {
	_, user := c.session()
	if user == nil {
		c.Notify("Sign in to export results", NotifyError)
		return "", ErrNotLoggedIn
	}

	c.mu.Lock()
	attempts := export.FilterByDate(c.state.Attempts, from, to)
	c.mu.Unlock()

	records := export.ResultRecords(attempts, user.Username, c.QuizTitle)
	data, name, err := export.Encode(format, records, c.now())
	if err != nil {
		c.Notify("Export failed", NotifyError)
		return "", err
	}

	path, err := c.download.Save(name, data)
	if err != nil {
		slog.Warn("export save failed", "file", name, "error", err)
		c.Notify("Export failed", NotifyError)
		return "", err
	}

	c.Notify("Export complete! File saved to "+path, NotifySuccess)
	return path, nil
}

// ExportSingleResult saves one attempt as JSON. When attemptID is not in the
// history the result on screen is exported instead.
func (c *Controller) ExportSingleResult(ctx context.Context, attemptID int) (string, error) {
	_, user := c.session()

	item, ok := c.findAttempt(attemptID)
	if !ok {
		c.mu.Lock()
		if c.state.Result != nil {
			item, ok = *c.state.Result, true
		}
		c.mu.Unlock()
	}
	if !ok {
		c.Notify("Attempt not found", NotifyError)
		return "", ErrAttemptNotFound
	}

	now := c.now()
	data, err := export.SingleResult(item, user, c.QuizTitle(item.QuizID), now)
	if err != nil {
		c.Notify("Export failed: "+err.Error(), NotifyError)
		return "", err
	}

	path, err := c.download.Save(export.SingleResultFileName(item.ID, now), data)
	if err != nil {
		c.Notify("Export failed: "+err.Error(), NotifyError)
		return "", err
	}

	c.Notify("Result exported to "+path, NotifySuccess)
	return path, nil
}

// GenerateCertificate issues a certificate for a scored attempt from the
// history. An existing certificate for the same quiz title and score is
// returned together with certificate.ErrDuplicate.
func (c *Controller) GenerateCertificate(ctx context.Context, attemptID int) (certificate.Certificate, error) {
	generation, user := c.session()
	if user == nil {
		c.Notify("Sign in to get certificates", NotifyError)
		return certificate.Certificate{}, ErrNotLoggedIn
	}

	item, ok := c.findAttempt(attemptID)
	if !ok {
		c.Notify("Attempt not found", NotifyError)
		return certificate.Certificate{}, ErrAttemptNotFound
	}

	cert, err := c.certs.Generate(ctx, user.ID, item, c.QuizTitle(item.QuizID))
	switch {
	case errors.Is(err, certificate.ErrDuplicate):
		c.Notify("Certificate already exists!", NotifyInfo)
		return cert, err
	case errors.Is(err, certificate.ErrBelowThreshold):
		c.Notify(fmt.Sprintf("A certificate needs at least %d%%", int(certificate.Threshold*100)), NotifyError)
		return cert, err
	case err != nil:
		c.Notify("Failed to create the certificate", NotifyError)
		return cert, err
	}

	if err := c.refreshCertificates(ctx, generation, user.ID); err != nil {
		return cert, err
	}
	c.Notify("Certificate created!", NotifySuccess)
	return cert, nil
}

func (c *Controller) refreshCertificates(ctx context.Context, generation uint64, userID int) error {
	certs, err := c.certs.List(ctx, userID)
	if err != nil {
		return err
	}
	return c.commit(generation, func(s *State) {
		s.Certificates = certs
	})
}

func (c *Controller) findCertificate(ctx context.Context, certificateID string) (certificate.Certificate, *quiz.User, error) {
	_, user := c.session()
	if user == nil {
		return certificate.Certificate{}, nil, ErrNotLoggedIn
	}
	cert, err := c.certs.Find(ctx, user.ID, certificateID)
	return cert, user, err
}

// DownloadCertificate renders the certificate as a standalone HTML file.
func (c *Controller) DownloadCertificate(ctx context.Context, certificateID string) (string, error) {
	cert, user, err := c.findCertificate(ctx, certificateID)
	if err != nil {
		c.Notify("Failed to download the certificate", NotifyError)
		return "", err
	}

	holder := user.FullName
	if holder == "" {
		holder = user.Username
	}
	data, err := certificate.RenderHTML(cert, holder)
	if err != nil {
		c.Notify("Failed to download the certificate", NotifyError)
		return "", err
	}

	path, err := c.download.Save(certificate.FileName(cert), data)
	if err != nil {
		c.Notify("Failed to download the certificate", NotifyError)
		return "", err
	}

	c.Notify("Certificate saved to "+path, NotifySuccess)
	return path, nil
}

// ShareCertificate hands the share text to the first working channel. A
// cancelled native share is not an error for the user.
func (c *Controller) ShareCertificate(ctx context.Context, certificateID string) (certificate.Channel, error) {
	cert, _, err := c.findCertificate(ctx, certificateID)
	if err != nil {
		c.Notify("Failed to share the certificate", NotifyError)
		return "", err
	}

	channel, err := c.sharer.Share(ctx, cert)
	if errors.Is(err, certificate.ErrShareCancelled) {
		slog.Info("certificate share cancelled", "certificate_id", cert.CertificateID)
		return "", err
	}
	if err != nil {
		c.Notify("Failed to share the certificate", NotifyError)
		return "", err
	}

	switch channel {
	case certificate.ChannelNative:
		c.Notify("Shared successfully!", NotifySuccess)
	case certificate.ChannelClipboard:
		c.Notify("Share text copied to the clipboard!", NotifySuccess)
	default:
		c.Notify("Share text printed for copying", NotifySuccess)
	}
	return channel, nil
}
