package endpoint

// Line is an "L" train line as named by the different feeds.
type Line struct {
	AlertID      string // Route id used by the alerts feed, e.g. "Brn"
	NiceName     string // Display name, e.g. "Brown Ln"
	TrainStopsID string // Column name in the open-data stops feed, e.g. "brn"
}

var lines = []Line{
	{AlertID: "Red", NiceName: "Red Ln", TrainStopsID: "red"},
	{AlertID: "Blue", NiceName: "Blue Ln", TrainStopsID: "blue"},
	{AlertID: "Brn", NiceName: "Brown Ln", TrainStopsID: "brn"},
	{AlertID: "G", NiceName: "Green Ln", TrainStopsID: "g"},
	{AlertID: "Org", NiceName: "Orange Ln", TrainStopsID: "o"},
	{AlertID: "P", NiceName: "Purple Ln", TrainStopsID: "p"},
	{AlertID: "Pexp", NiceName: "Purple Ln Exp", TrainStopsID: "pexp"},
	{AlertID: "Pink", NiceName: "Pink Ln", TrainStopsID: "pnk"},
	{AlertID: "Y", NiceName: "Yellow Line", TrainStopsID: "y"},
}

// Lines returns the train line table.
func Lines() []Line {
	return append([]Line(nil), lines...)
}

// LineByAlertID finds a line by its alerts feed route id.
func LineByAlertID(id string) (Line, bool) {
	for _, l := range lines {
		if l.AlertID == id {
			return l, true
		}
	}
	return Line{}, false
}

// LineByStopsID finds a line by its stops feed column name.
func LineByStopsID(id string) (Line, bool) {
	for _, l := range lines {
		if l.TrainStopsID == id {
			return l, true
		}
	}
	return Line{}, false
}
