// Package report writes scan results to disk.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshadvisor/internal/advisor"
	"github.com/Faultbox/meshadvisor/internal/scan"
)

// TimestampLayout names report files.
const TimestampLayout = "20060102_150405"

// Writer produces one timestamped text file per scan.
type Writer struct {
	Dir    string
	Prefix string
	now    func() time.Time
}

// NewWriter returns a writer into dir. An empty prefix becomes "MeshCheck".
func NewWriter(dir, prefix string) *Writer {
	if prefix == "" {
		prefix = "MeshCheck"
	}
	return &Writer{Dir: dir, Prefix: prefix, now: time.Now}
}

// Path returns the file name a report written at t would use.
func (w *Writer) Path(t time.Time) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s_%s.txt", w.Prefix, t.Format(TimestampLayout)))
}

// Write stores res as a text report and returns the file path.
func (w *Writer) Write(res *scan.Result) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", err
	}
	path := w.Path(w.now())
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteText(f, res); err != nil {
		f.Close()
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	return path, f.Close()
}

// WriteText renders res: a header, then each subject followed by its
// messages in the order they were found.
func WriteText(w io.Writer, res *scan.Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Mesh check report\n")
	fmt.Fprintf(bw, "Run:        %s\n", res.RunID)
	fmt.Fprintf(bw, "Mode:       %s\n", res.Mode)
	fmt.Fprintf(bw, "Started:    %s\n", res.Started.Format(time.RFC3339))
	fmt.Fprintf(bw, "Meshes:     %d\n", res.Meshes)
	fmt.Fprintf(bw, "Components: %d\n", res.Components)
	fmt.Fprintf(bw, "Skipped:    %d\n", res.Skipped)
	fmt.Fprintf(bw, "Failed:     %d\n", res.Failed)
	if res.Canceled {
		fmt.Fprintf(bw, "Canceled before completion\n")
	}

	for _, g := range groupBySubject(res.Diagnostics) {
		fmt.Fprintf(bw, "\n%s\n", g.subject)
		for _, d := range g.diags {
			if d.Fixed {
				fmt.Fprintf(bw, "\tfixed: %s\n", d.Message)
			} else {
				fmt.Fprintf(bw, "\t%s\n", d.Message)
			}
		}
	}
	return bw.Flush()
}

type group struct {
	subject string
	diags   []advisor.Diagnostic
}

func groupBySubject(diags []advisor.Diagnostic) []group {
	var groups []group
	index := make(map[string]int)
	for _, d := range diags {
		i, ok := index[d.Subject]
		if !ok {
			i = len(groups)
			index[d.Subject] = i
			groups = append(groups, group{subject: d.Subject})
		}
		groups[i].diags = append(groups[i].diags, d)
	}
	return groups
}

type yamlReport struct {
	RunID       string           `yaml:"run_id"`
	Mode        scan.Mode        `yaml:"mode"`
	Started     time.Time        `yaml:"started"`
	Finished    time.Time        `yaml:"finished"`
	Meshes      int              `yaml:"meshes"`
	Components  int              `yaml:"components"`
	Skipped     int              `yaml:"skipped"`
	Failed      int              `yaml:"failed"`
	Canceled    bool             `yaml:"canceled,omitempty"`
	Diagnostics []yamlDiagnostic `yaml:"diagnostics"`
}

type yamlDiagnostic struct {
	Subject string `yaml:"subject"`
	Check   string `yaml:"check,omitempty"`
	LOD     int    `yaml:"lod"`
	Message string `yaml:"message"`
	Fixed   bool   `yaml:"fixed,omitempty"`
}

// WriteYAML exports res as structured YAML.
func WriteYAML(w io.Writer, res *scan.Result) error {
	out := yamlReport{
		RunID:       res.RunID.String(),
		Mode:        res.Mode,
		Started:     res.Started,
		Finished:    res.Finished,
		Meshes:      res.Meshes,
		Components:  res.Components,
		Skipped:     res.Skipped,
		Failed:      res.Failed,
		Canceled:    res.Canceled,
		Diagnostics: make([]yamlDiagnostic, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Diagnostics {
		yd := yamlDiagnostic{Subject: d.Subject, LOD: d.LOD, Message: d.Message, Fixed: d.Fixed}
		if d.Check != 0 {
			yd.Check = d.CheckName()
		}
		out.Diagnostics = append(out.Diagnostics, yd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
