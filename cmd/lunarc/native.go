package main

/*
#cgo LDFLAGS: -ldl

#include <dlfcn.h>
#include <stdlib.h>

typedef int (*lunarc_run_fn)(int);

static int lunarc_dlrun(const char *path, int workers, char **errmsg) {
    void *handle = dlopen(path, RTLD_NOW);
    if (!handle) {
        *errmsg = dlerror();
        return -1;
    }
    dlerror();
    lunarc_run_fn fn = (lunarc_run_fn)dlsym(handle, "lunarc_run");
    char *err = dlerror();
    if (err != NULL) {
        *errmsg = err;
        dlclose(handle);
        return -1;
    }
    int rc = fn(workers);
    dlclose(handle);
    return rc;
}
*/
import "C"

import (
	"fmt"
	"path/filepath"
	"unsafe"
)

// runNativeLibrary dlopens the shared library produced by nativeBuild and
// invokes its exported lunarc_run(workers), the Go-side half of spec.md
// §4.4's "opens the shared library, locates the exported entry symbol...
// spawns it...waits for the thread pool to drain" — adapted here to locate
// lunarc_run rather than entry directly, since runtime.c's lunarc_run
// already performs the spawn(entry)+drain sequence internally once linked
// into the same translation unit as main.c's entry definition.
func runNativeLibrary(dir string, workers int) error {
	path := filepath.Join(dir, "libmain.so")
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var errmsg *C.char
	rc := C.lunarc_dlrun(cPath, C.int(workers), &errmsg)
	if rc != 0 {
		return fmt.Errorf("native run: %s", C.GoString(errmsg))
	}
	return nil
}
