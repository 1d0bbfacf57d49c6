package conversation

import (
	"errors"
	"testing"
)

const header = "%27myServerId%27%3A%27myContainerId%27%3A%27org.openshift%3Atest%3A1.3%27%3A%27d5bcfc1e-bf2c-4813-bff3-a97c0a2549db%27"

func TestParse(t *testing.T) {
	id, err := Parse(header)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := ID{
		ServerID:    "myServerId",
		ContainerID: "myContainerId",
		ReleaseID:   "org.openshift:test:1.3",
		Suffix:      "d5bcfc1e-bf2c-4813-bff3-a97c0a2549db",
	}
	if id != want {
		t.Errorf("Parse() = %+v, want %+v", id, want)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []string{
		"",
		"myContainerId",
		"'a':'b':'c'",
		"%27a%27%3A%27%27%3A%27c%27%3A%27d%27",
		"%zz",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			if _, err := Parse(in); !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformed", in, err)
			}
		})
	}
}

func TestNewRoundTrip(t *testing.T) {
	id := New("kieserver", "b56155057560fe8f3dc44b3347fd3c99", "org.example:test:1.3.0")
	if id.Suffix == "" {
		t.Fatal("New() should mint a suffix")
	}
	back, err := Parse(id.String())
	if err != nil {
		t.Fatalf("Parse(String()) error = %v", err)
	}
	if back != id {
		t.Errorf("round trip = %+v, want %+v", back, id)
	}
	if other := New("kieserver", id.ContainerID, id.ReleaseID); other.Suffix == id.Suffix {
		t.Error("New() should mint distinct suffixes")
	}
}
