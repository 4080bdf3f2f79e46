package mystery

// TimeSlot is a discrete slot on the evening's timeline. Discrete slots keep
// alibi verification mechanical instead of fuzzy time arithmetic.
type TimeSlot string

const (
	SlotEarlyEvening   TimeSlot = "early_evening"
	SlotGathering      TimeSlot = "gathering"
	SlotDinner         TimeSlot = "dinner"
	SlotCriticalWindow TimeSlot = "critical_window" // the murder happens here
	SlotDiscovery      TimeSlot = "discovery"
	SlotLateEvening    TimeSlot = "late_evening"
)

// TimeSlots in chronological order.
var TimeSlots = []TimeSlot{
	SlotEarlyEvening,
	SlotGathering,
	SlotDinner,
	SlotCriticalWindow,
	SlotDiscovery,
	SlotLateEvening,
}

func (t TimeSlot) Valid() bool {
	for _, slot := range TimeSlots {
		if t == slot {
			return true
		}
	}
	return false
}
