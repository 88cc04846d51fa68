package seed

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/okian/cadence/internal/domain/model"
	"github.com/okian/cadence/internal/domain/types"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	firstHour    = 8
	workingHours = 9 // drafts start between 08:00 and 16:45
	slotMinutes  = 15
	maxSlots     = 8 // events last 15 minutes to 2 hours
)

var (
	candidates = []string{"Ada Lovelace", "Grace Hopper", "Alan Turing", "Barbara Liskov", "Ken Thompson", "Frances Allen"}
	locations  = []string{"Room 1", "Room 2", "Main office", ""}
	topics     = map[types.EventType][]string{
		types.EventTypeInterview: {"Phone screen", "Technical interview", "Final round"},
		types.EventTypeMeeting:   {"Hiring sync", "Debrief", "Pipeline review"},
		types.EventTypeDeadline:  {"Offer expires", "Assessment due", "Job post closes"},
		types.EventTypeOther:     {"Career fair", "Onsite prep", "Reminder"},
	}
)

// Generate returns n drafts spread over days starting tomorrow in loc.
// Every draft passes validation.
func Generate(n, days int, now time.Time, loc *time.Location) []model.EventDraft {
	if loc == nil {
		loc = time.UTC
	}
	if days < 1 {
		days = 1
	}
	all := types.AllEventTypes()
	base := now.In(loc)
	base = time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	drafts := make([]model.EventDraft, n)
	for i := range drafts {
		typ := all[i%len(all)]
		start := base.AddDate(0, 0, randInt(days)).
			Add(time.Duration(firstHour)*time.Hour + time.Duration(randInt(workingHours*60/slotMinutes))*slotMinutes*time.Minute)
		end := start.Add(time.Duration(1+randInt(maxSlots)) * slotMinutes * time.Minute)
		drafts[i] = generateDraft(i, typ, start, end)
	}
	return drafts
}

func generateDraft(index int, typ types.EventType, start, end time.Time) model.EventDraft {
	choices := topics[typ]
	ref := uuid.NewString()[:8]
	d := model.EventDraft{
		Title:     fmt.Sprintf("%s #%d", choices[randInt(len(choices))], index+1),
		StartDate: start.Format(dateLayout),
		StartTime: start.Format(clockLayout),
		EndDate:   end.Format(dateLayout),
		EndTime:   end.Format(clockLayout),
		Type:      typ.String(),
		Location:  locations[randInt(len(locations))],
		Notes:     "seed " + ref,
	}
	if typ == types.EventTypeInterview {
		name := candidates[randInt(len(candidates))]
		d.CandidateName = name
		d.CandidateEmail = fmt.Sprintf("candidate-%s@example.com", ref)
		d.MeetingLink = "https://meet.example.com/" + ref
		d.ApplicationID = model.FlexID(ref)
	}
	return d
}

// randInt returns a uniform value in [0, n) using crypto/rand.
func randInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
