package certificates

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nodues/internal/clearance"
)

// StageLine is one row of the certificate's approval summary.
type StageLine struct {
	Department string
	Approver   string
	DecidedAt  time.Time
}

// Data is everything a renderer needs to produce the artifact.
type Data struct {
	ApplicationID string
	StudentID     string
	Number        string
	Issuer        string
	CompletedAt   time.Time
	Stages        []StageLine
}

// Renderer produces a certificate artifact and returns its storage location.
type Renderer interface {
	Render(ctx context.Context, data Data) (string, error)
}

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>No-Dues Certificate {{.Number}}</title></head>
<body>
<h1>No-Dues Clearance Certificate</h1>
<p>Certificate No: <strong>{{.Number}}</strong></p>
<p>This certifies that student <strong>{{.StudentID}}</strong> has no outstanding dues.</p>
<p>Application: {{.ApplicationID}}</p>
<p>Completed: {{.CompletedAt.Format "02 Jan 2006"}}</p>
<table border="1" cellpadding="4">
<tr><th>Department</th><th>Approved By</th><th>Date</th></tr>
{{range .Stages}}<tr><td>{{.Department}}</td><td>{{.Approver}}</td><td>{{.DecidedAt.Format "02 Jan 2006"}}</td></tr>
{{end}}</table>
<p>{{.Issuer}}</p>
</body>
</html>
`))

// FileRenderer writes certificates to a directory on local disk.
type FileRenderer struct {
	dir string
}

// NewFileRenderer returns a renderer writing into dir.
func NewFileRenderer(dir string) *FileRenderer {
	return &FileRenderer{dir: dir}
}

// Render writes the certificate artifact and returns its path. The write
// goes through a temp file so a partial artifact is never observed.
func (r *FileRenderer) Render(ctx context.Context, data Data) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(data.Number) == "" {
		return "", clearance.Wrap(clearance.ErrRender, "certificates", "render", "certificate number is required", nil)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", clearance.Wrap(clearance.ErrRender, "certificates", "render", "create certificate directory", err)
	}

	location := filepath.Join(r.dir, data.Number+".html")
	tmp, err := os.CreateTemp(r.dir, "."+data.Number+"-*")
	if err != nil {
		return "", clearance.Wrap(clearance.ErrRender, "certificates", "render", "create temp file", err)
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := certificateTemplate.Execute(tmp, data); err != nil {
		return "", clearance.Wrap(clearance.ErrRender, "certificates", "render", "execute template", err)
	}
	if err := tmp.Close(); err != nil {
		return "", clearance.Wrap(clearance.ErrRender, "certificates", "render", "close temp file", err)
	}
	if err := os.Rename(tmp.Name(), location); err != nil {
		return "", clearance.Wrap(clearance.ErrRender, "certificates", "render", "finalize artifact", err)
	}
	return location, nil
}

// Number builds a human-readable certificate number such as ND-2026-4F7A1C9B.
func Number(prefix string, completedAt time.Time, suffix string) string {
	suffix = strings.ToUpper(strings.ReplaceAll(suffix, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(strings.TrimSpace(prefix)), completedAt.Year(), suffix)
}
