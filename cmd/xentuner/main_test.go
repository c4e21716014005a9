package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xlemi/xentuner/internal/config"
	"github.com/0xlemi/xentuner/internal/engine"
	"github.com/0xlemi/xentuner/internal/scale"
	"github.com/0xlemi/xentuner/internal/tuning"
	"github.com/charmbracelet/log"
)

func TestMapRows(t *testing.T) {
	m, err := tuning.GenerateSize(scale.Default(), tuning.DefaultBaseFrequency, 16)
	if err != nil {
		t.Fatal(err)
	}

	rows := mapRows(m, 2)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	want := [][]string{
		{"-2", "22", "246.9417", "-100.000", "50.000"},
		{"-1", "23", "254.1776", "-50.000", "50.000"},
		{"0", "base", "261.6256", "+0.000", "50.000"},
		{"1", "1", "269.2918", "+50.000", "50.000"},
		{"2", "2", "277.1826", "+100.000", "50.000"},
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}

	// Rows are clamped to the map and the last entry has no step
	rows = mapRows(m, 100)
	if len(rows) != m.Len() {
		t.Fatalf("expected %d rows, got %d", m.Len(), len(rows))
	}
	if rows[len(rows)-1][4] != "-" {
		t.Errorf("last step %q", rows[len(rows)-1][4])
	}
}

func TestTableCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pentatonic.scl")
	text := "Pentatonic\n 5\n 200.0\n 400.0\n 700.0\n 900.0\n 2/1\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"table", "--scale", path, "--rows", "3", "--half-size", "32"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"Pentatonic, 5 notes", "base", "293.6648", "+200.000"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRootRejectsInvalidFlags(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"table", "--correlator", "yin"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected invalid correlator to fail")
	}
}

func TestListenRejectsFFTCorrelator(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"listen", "--correlator", "fft"})
	if err := root.Execute(); !errors.Is(err, config.ErrRealtime) {
		t.Fatalf("expected ErrRealtime, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	for _, corr := range []string{config.CorrelatorDirect, config.CorrelatorFFT} {
		t.Run(corr, func(t *testing.T) {
			cfg := config.Default()
			cfg.Correlator = corr
			conf := engine.NewConfiguration(cfg.BaseFrequency, cfg.HalfSize, log.NewWithOptions(&bytes.Buffer{}, log.Options{}))

			var out bytes.Buffer
			if err := runProbe(&out, cfg, conf, probeOptions{freq: 440, partials: 3}); err != nil {
				t.Fatal(err)
			}

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if len(lines) != 4 {
				t.Fatalf("expected 4 analyses, got %d:\n%s", len(lines), out.String())
			}
			for _, line := range lines {
				if !strings.Contains(line, "degree 18 (440.00 Hz)") {
					t.Errorf("unexpected analysis %q", line)
				}
				if !strings.Contains(line, "meter 20") {
					t.Errorf("expected centered meter in %q", line)
				}
			}
		})
	}
}

func TestProbeSilence(t *testing.T) {
	cfg := config.Default()
	conf := engine.NewConfiguration(cfg.BaseFrequency, cfg.HalfSize, log.NewWithOptions(&bytes.Buffer{}, log.Options{}))

	var out bytes.Buffer
	if err := runProbe(&out, cfg, conf, probeOptions{freq: 0, partials: 1, blocks: 12}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); !strings.HasPrefix(got, "#1  no pitch  meter 20") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestApplyScale(t *testing.T) {
	conf := engine.NewConfiguration(tuning.DefaultBaseFrequency, 64, log.NewWithOptions(&bytes.Buffer{}, log.Options{}))
	cfg := config.Default()

	if _, err := applyScale(conf, cfg); err != nil || conf.State() != engine.DefaultLoaded {
		t.Fatalf("default: %v, state %v", err, conf.State())
	}

	cfg.ScalePath = filepath.Join(t.TempDir(), "missing.scl")
	if _, err := applyScale(conf, cfg); err == nil {
		t.Fatal("expected error for a missing file")
	}
	if conf.State() != engine.DefaultLoaded {
		t.Errorf("state %v after failed load", conf.State())
	}

	cfg.ScalePath = filepath.Join(t.TempDir(), "tritave.scl")
	if err := os.WriteFile(cfg.ScalePath, []byte("Tritave\n 2\n 950.0\n 3/1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	status, err := applyScale(conf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if status != "loaded Tritave" || conf.State() != engine.UserLoaded {
		t.Errorf("status %q state %v", status, conf.State())
	}
}
