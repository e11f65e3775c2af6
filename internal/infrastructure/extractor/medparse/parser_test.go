package medparse

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]any
	}{
		{
			name: "glucose and hba1c",
			text: "Fasting Glucose: 126 mg/dL\nHbA1c: 7.2 %",
			want: map[string]any{
				"glucose": []string{"126"},
				"hba1c":   []string{"7.2"},
			},
		},
		{
			name: "blood pressure readings",
			text: "BP measured 140/90 and later 135 / 88 mmHg",
			want: map[string]any{
				"bp": []string{"140/90", "135/88"},
			},
		},
		{
			name: "empty text",
			text: "",
			want: map[string]any{},
		},
		{
			name: "no medical values",
			text: "The patient walked to the clinic.",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLipidPanel(t *testing.T) {
	got := Parse("Total Cholesterol: 210\nHDL: 45\nLDL: 130\nTriglycerides: 180")
	for _, field := range []string{"cholesterol_total", "cholesterol_hdl", "cholesterol_ldl", "triglycerides"} {
		if _, ok := got[field]; !ok {
			t.Fatalf("field %s missing from %v", field, got)
		}
	}
}
