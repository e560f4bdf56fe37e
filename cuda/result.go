package cuda

import (
	"fmt"

	"github.com/accelgo/hal/status"
)

// cuResult mirrors the CUresult error code of the CUDA driver API.
type cuResult uint32

const cudaSuccess cuResult = 0

// cuResultNames covers the codes this layer is likely to surface; anything
// else is reported numerically.
var cuResultNames = map[cuResult]string{
	1:   "CUDA_ERROR_INVALID_VALUE",
	2:   "CUDA_ERROR_OUT_OF_MEMORY",
	3:   "CUDA_ERROR_NOT_INITIALIZED",
	4:   "CUDA_ERROR_DEINITIALIZED",
	100: "CUDA_ERROR_NO_DEVICE",
	101: "CUDA_ERROR_INVALID_DEVICE",
	304: "CUDA_ERROR_OPERATING_SYSTEM",
	999: "CUDA_ERROR_UNKNOWN",
}

// String implements fmt.Stringer.
func (r cuResult) String() string {
	if name, ok := cuResultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("CUresult(%d)", uint32(r))
}

// cuCheck translates a native result into a NativeOperationFailed error
// preserving the original code and the call that produced it.
func cuCheck(result cuResult, call string) error {
	if result == cudaSuccess {
		return nil
	}
	return status.Errorf(status.NativeOperationFailed, "%s failed: %s (%d)", call, result, uint32(result))
}
