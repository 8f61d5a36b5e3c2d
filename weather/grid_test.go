package weather

import "testing"

func TestToGrid(t *testing.T) {
	cases := []struct {
		name     string
		lon, lat float64
		want     GridPoint
	}{
		{"Seoul City Hall", 126.9780, 37.5665, GridPoint{60, 127}},
		{"Busan", 129.0756, 35.1796, GridPoint{98, 76}},
		{"Jeju", 126.5312, 33.4996, GridPoint{52, 38}},
		{"Incheon", 126.7052, 37.4563, GridPoint{55, 124}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToGrid(tc.lon, tc.lat)
			if err != nil {
				t.Fatalf("ToGrid: %v", err)
			}
			if got != tc.want {
				t.Errorf("ToGrid(%v, %v) = %+v, want %+v", tc.lon, tc.lat, got, tc.want)
			}
		})
	}
}

func TestToGridRejectsOutOfRange(t *testing.T) {
	if _, err := ToGrid(200, 37.5); err == nil {
		t.Error("longitude 200 accepted")
	}
	if _, err := ToGrid(126.9, 95); err == nil {
		t.Error("latitude 95 accepted")
	}
}
