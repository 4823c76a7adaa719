package certificate

import (
	"bytes"
	"html/template"
	"regexp"
)

const issuedAtLayout = "January 2, 2006 15:04"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9]`)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Certificate - {{.QuizTitle}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: Arial, sans-serif; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); min-height: 100vh; display: flex; justify-content: center; align-items: center; padding: 20px; }
.certificate { background: white; border-radius: 20px; box-shadow: 0 20px 60px rgba(0,0,0,0.3); padding: 50px; max-width: 800px; width: 100%; text-align: center; position: relative; overflow: hidden; }
.logo { font-size: 36px; font-weight: bold; color: #4f46e5; margin-bottom: 10px; }
.subtitle { color: #6b7280; font-size: 18px; margin-bottom: 30px; }
.title { font-size: 42px; color: #1f2937; margin-bottom: 40px; font-weight: 300; }
.holder { font-size: 32px; color: #4f46e5; margin: 30px 0; font-weight: bold; }
.quiz { font-size: 28px; color: #374151; margin-bottom: 30px; font-weight: 500; }
.score { font-size: 72px; color: #059669; margin: 40px 0; font-weight: bold; }
.date { font-size: 18px; color: #6b7280; margin: 30px 0; }
.certificate-id { font-size: 14px; color: #9ca3af; margin-top: 40px; }
.footer { margin-top: 50px; padding-top: 30px; border-top: 2px solid #e5e7eb; display: flex; justify-content: space-between; align-items: center; }
.signature { text-align: left; }
.signature-name { font-weight: bold; color: #1f2937; }
.signature-title { color: #6b7280; font-size: 14px; }
.watermark { position: absolute; bottom: 20px; right: 20px; opacity: 0.1; font-size: 48px; color: #4f46e5; transform: rotate(-15deg); }
</style>
</head>
<body>
<div class="certificate">
  <div class="watermark">QuizPlatform</div>
  <div class="logo">QuizPlatform</div>
  <div class="subtitle">Online testing platform</div>
  <div class="title">CERTIFICATE</div>
  <div>This certifies that</div>
  <div class="holder">{{.Holder}}</div>
  <div>has successfully completed</div>
  <div class="quiz">&laquo;{{.QuizTitle}}&raquo;</div>
  <div>with a score of</div>
  <div class="score">{{.ScorePercentage}}%</div>
  <div class="date">Issued: {{.IssuedAt}}</div>
  <div class="certificate-id">Certificate ID: {{.CertificateID}}</div>
  <div class="footer">
    <div class="signature">
      <div class="signature-name">QuizPlatform Admin</div>
      <div class="signature-title">Chief administrator</div>
    </div>
  </div>
</div>
</body>
</html>
`))

type certificateView struct {
	Holder          string
	QuizTitle       string
	ScorePercentage int
	IssuedAt        string
	CertificateID   string
}

// RenderHTML produces a standalone certificate document. An empty holder is
// shown as "User".
func RenderHTML(cert Certificate, holder string) ([]byte, error) {
	if holder == "" {
		holder = "User"
	}

	var buf bytes.Buffer
	err := certificateTemplate.Execute(&buf, certificateView{
		Holder:          holder,
		QuizTitle:       cert.QuizTitle,
		ScorePercentage: cert.ScorePercentage,
		IssuedAt:        cert.IssuedAt.Format(issuedAtLayout),
		CertificateID:   cert.CertificateID,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName replaces every character outside [A-Za-z0-9] in the quiz title
// with an underscore.
func FileName(cert Certificate) string {
	return "Certificate_" + unsafeFileChars.ReplaceAllString(cert.QuizTitle, "_") + ".html"
}
