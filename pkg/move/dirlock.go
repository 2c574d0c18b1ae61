package move

import "sync"

// dirLocks is a mutex per key, used to serialize name resolution per directory.
type dirLocks struct {
	cond *sync.Cond
	set  map[string]struct{}
}

func newDirLocks() *dirLocks {
	return &dirLocks{
		cond: sync.NewCond(new(sync.Mutex)),
		set:  make(map[string]struct{}),
	}
}

func (d *dirLocks) Lock(dir string) {
	d.cond.L.Lock()
	defer d.cond.L.Unlock()
	for d.locked(dir) {
		d.cond.Wait()
	}
	d.set[dir] = struct{}{}
}

func (d *dirLocks) Unlock(dir string) {
	d.cond.L.Lock()
	defer d.cond.L.Unlock()
	delete(d.set, dir)
	d.cond.Broadcast()
}

func (d *dirLocks) locked(dir string) bool {
	_, ok := d.set[dir]
	return ok
}
