package redis

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "snapshot", got: SnapshotKey("EGI/Critical/topology"), want: "connectors:snapshot:EGI/Critical/topology"},
		{name: "state", got: StateKey("EOSC/Core/service-types"), want: "connectors:state:EOSC/Core/service-types"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
