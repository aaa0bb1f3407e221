package types

import (
	"strings"
	"testing"
)

func TestSiteValidate(t *testing.T) {
	tests := []struct {
		name    string
		site    Site
		wantErr bool
	}{
		{
			name:    "valid site",
			site:    Site{Name: "LCG.CERN.ch", Status: StatusActive},
			wantErr: false,
		},
		{
			name:    "missing name",
			site:    Site{Status: StatusActive},
			wantErr: true,
		},
		{
			name:    "blank name",
			site:    Site{Name: "   ", Status: StatusActive},
			wantErr: true,
		},
		{
			name:    "name too long",
			site:    Site{Name: strings.Repeat("x", 256), Status: StatusActive},
			wantErr: true,
		},
		{
			name:    "missing status",
			site:    Site{Name: "LCG.CERN.ch"},
			wantErr: true,
		},
		{
			name:    "unchecked status is still a valid site",
			site:    Site{Name: "LCG.CERN.ch", Status: "Retired"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.site.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsCheckedStatus(t *testing.T) {
	for _, s := range []string{StatusActive, StatusProbing, StatusBanned} {
		if !IsCheckedStatus(s) {
			t.Errorf("expected %q to be a checked status", s)
		}
	}
	for _, s := range []string{"", "active", "Retired"} {
		if IsCheckedStatus(s) {
			t.Errorf("expected %q not to be a checked status", s)
		}
	}
}

func TestNewSiteCandidate(t *testing.T) {
	c := NewSiteCandidate(SiteStatus{
		Name:         "siteA",
		Status:       StatusActive,
		FormerStatus: StatusProbing,
		Reason:       "auto",
	})

	if c.Granularity != GranularitySite {
		t.Errorf("Granularity = %q, want %q", c.Granularity, GranularitySite)
	}
	if c.EntityID != "siteA" || c.Status != StatusActive || c.FormerStatus != StatusProbing || c.Reason != "auto" {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if got := c.String(); got != "Site/siteA (Active)" {
		t.Errorf("String() = %q", got)
	}
}

func TestGranularityIsValid(t *testing.T) {
	if !GranularitySite.IsValid() {
		t.Error("Site granularity should be valid")
	}
	if Granularity("Resource").IsValid() {
		t.Error("Resource granularity should not be valid in this agent")
	}
}
