package timezone

import (
	"os"
	"time"
)

var Location *time.Location

func init() {
	name := os.Getenv("CAMPWATCH_TZ")
	if name == "" {
		name = "America/Los_Angeles"
	}
	var err error
	Location, err = time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
}

// force the campground's timezone rather than wherever the server
// happens to be deployed, otherwise date math based on
// <time.Time>.Year()/Month()/Day()/Hour() shifts around
func Now() time.Time {
	return time.Now().In(Location)
}
