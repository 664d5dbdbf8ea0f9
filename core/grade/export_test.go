package grade

import "time"

// SetNowFunc freezes the service clock; the returned func restores it.
func SetNowFunc(f func() time.Time) (restore func()) {
	nowFunc = f
	return func() { nowFunc = time.Now }
}
