package outbreaksim

import (
	"os"
	"runtime"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestConfig_ToModelParameters_OverlaysProvidedFields(t *testing.T) {
	cfg := NewConfig()
	cfg.Tbar = floatPtr(3)
	cfg.Kappa = floatPtr(5)
	cfg.Lambda = floatPtr(2)
	cfg.P = floatPtr(0.4)
	cfg.Nstart = intPtr(7)

	pars, err := cfg.ToModelParameters()
	if err != nil {
		t.Fatalf("ToModelParameters: %v", err)
	}
	if pars.Main.Ave != 3 {
		t.Errorf(UnequalFloatParameterError, "tbar", 3.0, pars.Main.Ave)
	}
	if pars.Nstart != 7 {
		t.Errorf(UnequalIntParameterError, "nstart", 7, pars.Nstart)
	}
}

func TestConfig_ToModelParameters_GroupFlagsMutuallyExclusive(t *testing.T) {
	cfg := NewConfig()
	cfg.Tbar = floatPtr(3)
	cfg.Kappa = floatPtr(5)
	cfg.Lambda = floatPtr(2)
	cfg.P = floatPtr(0.4)
	cfg.GroupLogAttendees = boolPtr(true)
	cfg.GroupLogAttendeesPlus1 = boolPtr(true)

	if _, err := cfg.ToModelParameters(); err == nil {
		t.Fatal("expected an error when two group_log_* flags are both set")
	}
}

func TestConfig_ToModelParameters_PriInfectiousSwitchesTimeType(t *testing.T) {
	cfg := NewConfig()
	cfg.Tbar = floatPtr(3)
	cfg.Kappa = floatPtr(5)
	cfg.Lambda = floatPtr(2)
	cfg.P = floatPtr(0.4)
	cfg.PriInfectious = boolPtr(true)

	pars, err := cfg.ToModelParameters()
	if err != nil {
		t.Fatalf("ToModelParameters: %v", err)
	}
	if pars.TimeType != TimePriInfectious {
		t.Fatal("expected pri_infectious=true to set TimeType=TimePriInfectious")
	}
}

func TestConfig_ToRunConfig_PriInfectiousForcesRelTimeShape(t *testing.T) {
	cfg := NewConfig()
	cfg.PriInfectious = boolPtr(true)

	rc := cfg.ToRunConfig()
	if rc.Shape != FrameRelTime {
		t.Fatalf("pri_infectious=true with reltime unset: shape = %v, want FrameRelTime", rc.Shape)
	}

	cfg.Postest = boolPtr(true)
	rc = cfg.ToRunConfig()
	if rc.Shape != FrameRelTimePostest {
		t.Fatalf("pri_infectious=true with postest=true: shape = %v, want FrameRelTimePostest", rc.Shape)
	}
}

func TestConfig_ToModelParameters_PriNoPeriodFlagsClearBits(t *testing.T) {
	cfg := NewConfig()
	cfg.Tbar = floatPtr(3)
	cfg.Kappa = floatPtr(5)
	cfg.Lambda = floatPtr(2)
	cfg.P = floatPtr(0.4)
	cfg.PriNoAltPeriod = boolPtr(true)

	pars, err := cfg.ToModelParameters()
	if err != nil {
		t.Fatalf("ToModelParameters: %v", err)
	}
	if pars.PriCommPerType&PriCommPerAlt != 0 {
		t.Fatal("expected pri_no_alt_period=true to clear PriCommPerAlt")
	}
	if pars.PriCommPerType&PriCommPerMain == 0 {
		t.Fatal("pri_no_alt_period should not clear PriCommPerMain")
	}
}

func TestConfig_ToRunConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	rc := cfg.ToRunConfig()
	if rc.NPaths != 1 || rc.NSetsPerThread != 1 || rc.NPers != 1024 {
		t.Fatalf("unexpected defaults: %+v", rc)
	}
	if rc.NThreads != runtime.NumCPU() {
		t.Errorf(UnequalIntParameterError, "nthreads default", runtime.NumCPU(), rc.NThreads)
	}
	if rc.Shape != FrameReg {
		t.Fatal("expected default frame shape FrameReg")
	}
}

func TestConfig_ToRunConfig_ShapeSelection(t *testing.T) {
	cfg := NewConfig()
	cfg.RelTime = boolPtr(true)
	cfg.Postest = boolPtr(true)
	rc := cfg.ToRunConfig()
	if rc.Shape != FrameRelTimePostest {
		t.Fatal("expected reltime+postest to select FrameRelTimePostest")
	}
}

func TestConfig_ToRunConfig_OverridesAndFlags(t *testing.T) {
	cfg := NewConfig()
	cfg.NPaths = intPtr(50)
	cfg.NThreads = intPtr(4)
	cfg.Seed = func() *int64 { v := int64(123); return &v }()
	cfg.Ninfhist = boolPtr(true)
	cfg.Trace = boolPtr(true)

	rc := cfg.ToRunConfig()
	if rc.NPaths != 50 || rc.NThreads != 4 || rc.Seed != 123 {
		t.Fatalf("unexpected overridden fields: %+v", rc)
	}
	if !rc.RecordNinfs || !rc.Trace {
		t.Fatal("expected RecordNinfs and Trace both true")
	}
}

func TestLoadConfigFile_DecodesTOML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/run.toml"
	content := "tbar = 2.5\nnpaths = 30\ntrace = true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Tbar == nil || *cfg.Tbar != 2.5 {
		t.Fatalf("cfg.Tbar = %v, want 2.5", cfg.Tbar)
	}
	if cfg.NPaths == nil || *cfg.NPaths != 30 {
		t.Fatalf("cfg.NPaths = %v, want 30", cfg.NPaths)
	}
	if !boolVal(cfg.Trace) {
		t.Fatal("expected trace=true to decode")
	}
}
