package dice

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/louisbranch/diceroller/internal/random"
)

func decodeRecord(t *testing.T, record Record) map[string]any {
	t.Helper()
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	return decoded
}

func TestRoll_SuccessRecord(t *testing.T) {
	record := Roll(Request{Expression: "4d6kh3", Source: script(3, 6, 1, 6)})
	if !record.OK || record.Error != nil {
		t.Fatalf("record = %+v, want success", record)
	}
	decoded := decodeRecord(t, record)

	if decoded["ok"] != true {
		t.Fatalf("ok = %v, want true", decoded["ok"])
	}
	if decoded["final"] != float64(15) {
		t.Fatalf("final = %v, want 15", decoded["final"])
	}
	if decoded["type"] != "sum" {
		t.Fatalf("type = %v, want sum", decoded["type"])
	}
	if decoded["version"] != Version {
		t.Fatalf("version = %v, want %s", decoded["version"], Version)
	}
	if _, ok := decoded["error"]; ok {
		t.Fatal("success record must not carry an error")
	}

	rng := decoded["rng"].(map[string]any)
	if rng["source"] != random.SourceCSPRNG || rng["method"] != random.MethodRejectionSampling {
		t.Fatalf("rng = %v, want CSPRNG rejection sampling", rng)
	}

	limits := decoded["limits"].(map[string]any)
	if limits["maxDice"] != float64(DefaultMaxDice) || limits["maxRecursion"] != float64(DefaultMaxRecursion) {
		t.Fatalf("limits = %v, want defaults", limits)
	}

	trace := decoded["trace"].([]any)
	if len(trace) != 1 {
		t.Fatalf("trace entries = %d, want 1", len(trace))
	}
	term := trace[0].(map[string]any)
	if term["term"] != "4d6kh3" || term["sum"] != float64(15) {
		t.Fatalf("term = %v, want 4d6kh3 summing to 15", term)
	}
	if !reflect.DeepEqual(term["keptValues"], []any{float64(6), float64(6), float64(3)}) {
		t.Fatalf("keptValues = %v, want [6 6 3]", term["keptValues"])
	}
	rolls := term["rolls"].([]any)
	dropped := rolls[2].(map[string]any)
	if dropped["value"] != float64(1) || dropped["dropped"] != true {
		t.Fatalf("third roll = %v, want dropped 1", dropped)
	}
	kept := rolls[0].(map[string]any)
	if _, ok := kept["dropped"]; ok {
		t.Fatalf("kept roll = %v, want no dropped flag", kept)
	}
}

func TestRoll_SeededProvenance(t *testing.T) {
	record := Roll(Request{Expression: "1d20", Source: random.NewSeeded(42)})
	if record.RNG.Source != random.SourceChaCha8 || record.RNG.Seed == nil || *record.RNG.Seed != 42 {
		t.Fatalf("rng = %+v, want seeded ChaCha8 with seed 42", record.RNG)
	}
}

func TestRoll_SuccessCountRecord(t *testing.T) {
	record := Roll(Request{Expression: "3d10>=7", Source: script(7, 2, 9)})
	decoded := decodeRecord(t, record)
	if decoded["type"] != "success_count" || decoded["final"] != float64(2) {
		t.Fatalf("record = %v, want two successes", decoded)
	}
	term := decoded["trace"].([]any)[0].(map[string]any)
	if term["successes"] != float64(2) || term["threshold"] != ">=7" {
		t.Fatalf("term = %v, want 2 successes at >=7", term)
	}
	if _, ok := term["sum"]; ok {
		t.Fatalf("term = %v, success count must not carry a sum", term)
	}
	rolls := term["rolls"].([]any)
	miss := rolls[1].(map[string]any)
	if miss["success"] != false {
		t.Fatalf("second roll = %v, want success false", miss)
	}
}

func TestRoll_HistoryFields(t *testing.T) {
	record := Roll(Request{Expression: "1d6r1!!", Source: script(1, 6, 6, 2)})
	decoded := decodeRecord(t, record)
	roll := decoded["trace"].([]any)[0].(map[string]any)["rolls"].([]any)[0].(map[string]any)
	if roll["value"] != float64(14) {
		t.Fatalf("value = %v, want 14", roll["value"])
	}
	if !reflect.DeepEqual(roll["rerolledFrom"], []any{float64(1)}) {
		t.Fatalf("rerolledFrom = %v, want [1]", roll["rerolledFrom"])
	}
	if roll["rerollTrigger"] != "=1" {
		t.Fatalf("rerollTrigger = %v, want =1", roll["rerollTrigger"])
	}
	if !reflect.DeepEqual(roll["compounded"], []any{float64(6), float64(2)}) {
		t.Fatalf("compounded = %v, want [6 2]", roll["compounded"])
	}
	if roll["explodes"] != true {
		t.Fatalf("explodes = %v, want true", roll["explodes"])
	}
}

func TestRoll_ErrorRecord(t *testing.T) {
	record := Roll(Request{Expression: "4d6kh"})
	if record.OK || record.Error == nil {
		t.Fatalf("record = %+v, want failure", record)
	}
	decoded := decodeRecord(t, record)
	if len(decoded) != 2 {
		t.Fatalf("failure record keys = %v, want ok and error only", decoded)
	}
	if decoded["ok"] != false {
		t.Fatalf("ok = %v, want false", decoded["ok"])
	}
	want := map[string]any{
		"type":     "ParseError",
		"message":  `expected number after "kh"`,
		"position": float64(5),
		"input":    "4d6kh",
	}
	if !reflect.DeepEqual(decoded["error"], want) {
		t.Fatalf("error = %v, want %v", decoded["error"], want)
	}
}

func TestRecord_UnmarshalRoundTrip(t *testing.T) {
	records := []Record{
		Roll(Request{Expression: "2d6!>=5kh2", Source: random.NewSeeded(5)}),
		Roll(Request{Expression: "1d%+"}),
	}
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded Record
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		again, err := json.Marshal(decoded)
		if err != nil {
			t.Fatalf("marshal decoded: %v", err)
		}
		if string(again) != string(data) {
			t.Fatalf("round trip changed record:\n%s\n%s", data, again)
		}
	}
}

func TestRecord_UnmarshalRejectsFailureWithoutError(t *testing.T) {
	var record Record
	if err := json.Unmarshal([]byte(`{"ok":false}`), &record); err == nil {
		t.Fatal("expected error")
	}
}
