package server

import (
	"container/list"
	"sync"
	"time"
)

// Job : delayed task callback, runs on its own goroutine
type Job func(data interface{})

// TimeWheel schedules delayed jobs in slots that advance one per interval.
// All bookkeeping happens on the wheel goroutine; callers talk to it over
// channels.
type TimeWheel struct {
	interval time.Duration // time to move forward one slot
	ticker   *time.Ticker
	slots    []*list.List

	// key: timer id, value: slot holding the timer
	timer      map[string]int
	currentPos int
	slotNum    int
	job        Job

	addTaskChannel    chan Task
	removeTaskChannel chan string
	stopChannel       chan struct{}
	stopOnce          sync.Once
}

// Task : delayed task
type Task struct {
	delay  time.Duration
	circle int         // full turns left before the task is due
	key    string      // timer id, empty tasks cannot be removed
	data   interface{} // job argument
}

// NewTimeWheel returns nil when any argument is unusable.
func NewTimeWheel(interval time.Duration, slotNum int, job Job) *TimeWheel {
	if interval <= 0 || slotNum <= 0 || job == nil {
		return nil
	}
	tw := &TimeWheel{
		interval:          interval,
		slots:             make([]*list.List, slotNum),
		timer:             make(map[string]int),
		slotNum:           slotNum,
		job:               job,
		addTaskChannel:    make(chan Task),
		removeTaskChannel: make(chan string),
		stopChannel:       make(chan struct{}),
	}
	for i := range tw.slots {
		tw.slots[i] = list.New()
	}
	return tw
}

// Start ...
func (tw *TimeWheel) Start() {
	tw.ticker = time.NewTicker(tw.interval)
	go tw.run()
}

// Stop halts the wheel; pending tasks never fire. Safe to call more than once.
func (tw *TimeWheel) Stop() {
	tw.stopOnce.Do(func() {
		close(tw.stopChannel)
	})
}

// AddTimer schedules data for the job after delay. Adding a key that is
// already pending replaces the earlier timer.
func (tw *TimeWheel) AddTimer(delay time.Duration, key string, data interface{}) {
	if delay < 0 {
		return
	}
	select {
	case tw.addTaskChannel <- Task{delay: delay, key: key, data: data}:
	case <-tw.stopChannel:
	}
}

// RemoveTimer ...
func (tw *TimeWheel) RemoveTimer(key string) {
	if key == "" {
		return
	}
	select {
	case tw.removeTaskChannel <- key:
	case <-tw.stopChannel:
	}
}

func (tw *TimeWheel) run() {
	for {
		select {
		case <-tw.ticker.C:
			tw.tickHandler()
		case task := <-tw.addTaskChannel:
			tw.addTask(&task)
		case key := <-tw.removeTaskChannel:
			tw.removeTask(key)
		case <-tw.stopChannel:
			tw.ticker.Stop()
			return
		}
	}
}

func (tw *TimeWheel) tickHandler() {
	tw.scanAndRunTask(tw.slots[tw.currentPos])
	tw.currentPos = (tw.currentPos + 1) % tw.slotNum
}

// run the due tasks of a slot, one turn off the rest
func (tw *TimeWheel) scanAndRunTask(l *list.List) {
	for e := l.Front(); e != nil; {
		task := e.Value.(*Task)
		if task.circle > 0 {
			task.circle--
			e = e.Next()
			continue
		}

		go tw.job(task.data)
		next := e.Next()
		l.Remove(e)
		if task.key != "" {
			delete(tw.timer, task.key)
		}
		e = next
	}
}

func (tw *TimeWheel) addTask(task *Task) {
	if task.key != "" {
		tw.removeTask(task.key)
	}

	pos, circle := tw.getPositionAndCircle(task.delay)
	task.circle = circle
	tw.slots[pos].PushBack(task)

	if task.key != "" {
		tw.timer[task.key] = pos
	}
}

// slot the timer lands in and the turns the wheel makes before it is due
func (tw *TimeWheel) getPositionAndCircle(d time.Duration) (pos int, circle int) {
	steps := int(d / tw.interval)
	circle = steps / tw.slotNum
	pos = (tw.currentPos + steps) % tw.slotNum
	return
}

func (tw *TimeWheel) removeTask(key string) {
	position, ok := tw.timer[key]
	if !ok {
		return
	}
	l := tw.slots[position]
	for e := l.Front(); e != nil; e = e.Next() {
		if e.Value.(*Task).key == key {
			l.Remove(e)
			break
		}
	}
	delete(tw.timer, key)
}
