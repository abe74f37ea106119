package types

// ScheduleRecord holds up to four future review dates labelled R1..R4.
// Values are stored exactly as parsed from Section C; textual order in the
// document does not matter, only the labels do.
type ScheduleRecord struct {
	R1 string `json:"r1,omitempty"`
	R2 string `json:"r2,omitempty"`
	R3 string `json:"r3,omitempty"`
	R4 string `json:"r4,omitempty"`
}

// IsEmpty reports whether no review dates were extracted.
func (s ScheduleRecord) IsEmpty() bool {
	return s.R1 == "" && s.R2 == "" && s.R3 == "" && s.R4 == ""
}

// Set assigns the value for a label ("R1".."R4"). Unknown labels are ignored.
func (s *ScheduleRecord) Set(label, value string) {
	switch label {
	case "R1":
		s.R1 = value
	case "R2":
		s.R2 = value
	case "R3":
		s.R3 = value
	case "R4":
		s.R4 = value
	}
}

// Get returns the value for a label ("R1".."R4"), or "" for unknown labels.
func (s ScheduleRecord) Get(label string) string {
	switch label {
	case "R1":
		return s.R1
	case "R2":
		return s.R2
	case "R3":
		return s.R3
	case "R4":
		return s.R4
	}
	return ""
}
