package sealevel

const (
	CUInvokeUnits                 = 1000
	CURoModifyDefaultComputeUnits = 150
)
