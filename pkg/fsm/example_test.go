package fsm_test

import (
	"fmt"
	"time"

	"github.com/bft-labs/stagehand/pkg/fsm"
)

type kettle struct {
	temp int
}

// heating embeds fsm.Base to get its machine, context and no-op hooks.
type heating struct {
	fsm.Base[string, *kettle]
}

func (h *heating) OnEnter() { fmt.Println("heating") }

func (h *heating) OnUpdate(dt time.Duration) {
	k := h.Context()
	k.temp += 40
	if k.temp >= 100 {
		_ = h.TransitionTo("boiling")
	}
}

func Example() {
	k := &kettle{temp: 20}
	m := fsm.New[string, *kettle](k,
		fsm.WithName[string, *kettle]("kettle"),
		fsm.WithState[string, *kettle]("heating", func() fsm.State[string, *kettle] {
			return &heating{}
		}),
		fsm.WithState[string, *kettle]("boiling", func() fsm.State[string, *kettle] {
			return &fsm.FuncState[string, *kettle]{
				Enter: func(m *fsm.Machine[string, *kettle]) {
					fmt.Println("boiling at", m.Context().temp)
				},
			}
		}),
	)

	_ = m.TransitionTo("heating")
	for !m.Is("boiling") {
		m.Update(time.Second)
	}

	// Output:
	// heating
	// boiling at 100
}
