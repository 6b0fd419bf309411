package refcode

import "testing"

func TestNewAllocator(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		floor    int
		existing []string
		wantNum  int
		wantCode string
	}{
		{name: "empty store starts at floor+1", prefix: "ISMLINO", floor: 3859, wantNum: 3860, wantCode: "ISMLINO3860"},
		{name: "continues after max", prefix: "ISMLINO", floor: 3859, existing: []string{"ISMLINO3860", "ISMLINO3861"}, wantNum: 3862, wantCode: "ISMLINO3862"},
		{name: "unordered codes", prefix: "ISMLINO", floor: 3859, existing: []string{"ISMLINO3900", "ISMLINO3861"}, wantNum: 3901, wantCode: "ISMLINO3901"},
		{name: "malformed codes ignored", prefix: "ISMLINO", floor: 3859, existing: []string{"ISMLINO", "ISMLINOxx", "ISMLINO38a0", "LOL123", "", "ISMLINO3870"}, wantNum: 3871, wantCode: "ISMLINO3871"},
		{name: "all malformed falls back to floor", prefix: "ISMLINO", floor: 3859, existing: []string{"lol", "ISMLINO-12"}, wantNum: 3860, wantCode: "ISMLINO3860"},
		{name: "codes below floor do not lower the sequence", prefix: "ISMLINO", floor: 3859, existing: []string{"ISMLINO12"}, wantNum: 3860, wantCode: "ISMLINO3860"},
		{name: "other prefix", prefix: "ismlinflu", floor: 100, existing: []string{"ismlinflu101", "ISMLINO4000"}, wantNum: 102, wantCode: "ismlinflu102"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := NewAllocator(tt.prefix, tt.floor, tt.existing)
			num, code := alloc.Next()
			if num != tt.wantNum {
				t.Errorf("Next() num = %d; want %d", num, tt.wantNum)
			}
			if code != tt.wantCode {
				t.Errorf("Next() code = %s; want %s", code, tt.wantCode)
			}
		})
	}
}

func TestAllocatorBatchIsConsecutive(t *testing.T) {
	alloc := NewAllocator("ISMLINO", 3859, []string{"ISMLINO3861"})

	seen := make(map[string]bool)
	prev := 3861
	for i := 0; i < 50; i++ {
		num, code := alloc.Next()
		if num != prev+1 {
			t.Fatalf("Next() num = %d; want %d (no gaps)", num, prev+1)
		}
		if seen[code] {
			t.Fatalf("Next() reissued code %s", code)
		}
		seen[code] = true
		prev = num
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		code   string
		want   int
		wantOK bool
	}{
		{code: "ISMLINO3860", want: 3860, wantOK: true},
		{code: "ISMLINO0", want: 0, wantOK: true},
		{code: "ISMLINO", wantOK: false},
		{code: "ISMLINO-1", wantOK: false},
		{code: "ISMLINO+1", wantOK: false},
		{code: "ISMLINO38 60", wantOK: false},
		{code: "ismlino3860", wantOK: false},
		{code: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			n, ok := Parse("ISMLINO", tt.code)
			if ok != tt.wantOK || n != tt.want {
				t.Errorf("Parse() = (%d, %v); want (%d, %v)", n, ok, tt.want, tt.wantOK)
			}
		})
	}
}
