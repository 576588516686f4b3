package status

import (
	"sync"
	"testing"
	"time"

	"heater_controller/internal/models"
)

func TestStore_UpdateAndSnapshot(t *testing.T) {
	s := NewStore(models.InitialStatus(time.Now()))

	before := s.Snapshot()
	if before.Safe || before.OneApplied || before.TwoApplied {
		t.Fatalf("initial status must be off and unarmed: %+v", before)
	}

	after := s.Update(func(st *models.HeaterStatus) {
		st.Target = 21
		st.OneDemand = true
	})
	if after.Version != before.Version+1 {
		t.Fatalf("version = %d, want %d", after.Version, before.Version+1)
	}
	if before.Target == 21 {
		t.Fatalf("earlier snapshot was mutated")
	}
	if got := s.Snapshot(); got.Target != 21 || !got.OneDemand || s.Version() != after.Version {
		t.Fatalf("snapshot = %+v", got)
	}
}

// Two writers each set a group of fields to a single value. A reader must only
// ever observe a group that is entirely one writer's value.
func TestStore_NoTornReads(t *testing.T) {
	s := NewStore(models.HeaterStatus{})

	const rounds = 2000
	var wg sync.WaitGroup
	writer := func(v float64) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			s.Update(func(st *models.HeaterStatus) {
				st.Fnt, st.Bck, st.Top, st.Bot, st.Chip, st.Rem = v, v, v, v, v, v
				st.Target = v
			})
		}
	}

	stop := make(chan struct{})
	errs := make(chan string, 1)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := s.Snapshot()
			for _, f := range []float64{st.Bck, st.Top, st.Bot, st.Chip, st.Rem, st.Target} {
				if f != st.Fnt {
					select {
					case errs <- "torn snapshot observed":
					default:
					}
					return
				}
			}
		}
	}()

	wg.Add(2)
	go writer(1)
	go writer(2)
	wg.Wait()
	close(stop)

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
	if v := s.Version(); v != 2*rounds {
		t.Fatalf("version = %d, want %d", v, 2*rounds)
	}
}

func TestStore_ConcurrentFieldGroupsDoNotLoseUpdates(t *testing.T) {
	s := NewStore(models.HeaterStatus{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Update(func(st *models.HeaterStatus) { st.Fnt++ })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Update(func(st *models.HeaterStatus) { st.Bck++ })
		}
	}()
	wg.Wait()

	if st := s.Snapshot(); st.Fnt != 500 || st.Bck != 500 {
		t.Fatalf("lost updates: fnt=%v bck=%v", st.Fnt, st.Bck)
	}
}
