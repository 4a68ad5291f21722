// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dist

import "math"

var gammlnCof = [6]float64{
	76.18009172947146,
	-86.50532032941677,
	24.01409824083091,
	-1.231739572450155,
	0.1208650973866179e-2,
	-0.5395239384953e-5,
}

// Gammln 回傳 ln Γ(xx)，xx > 0。Lanczos 六項近似，誤差約 2e-10。
func Gammln(xx float64) float64 {
	x := xx - 1.0
	tmp := x + 5.5
	tmp -= (x + 0.5) * math.Log(tmp)
	ser := 1.000000000190015
	for _, c := range gammlnCof {
		x += 1.0
		ser += c / x
	}
	return -tmp + math.Log(2.5066282746310005*ser)
}

const (
	stirC1 = 8.33333333333333333e-02  // +1/12
	stirC3 = -2.77777777777777778e-03 // -1/360
	stirC5 = 7.93650793650793651e-04  // +1/1260
	stirC7 = -5.95238095238095238e-04 // -1/1680
)

var stirlingTable = [31]float64{
	0.0,
	8.106146679532726e-02, 4.134069595540929e-02,
	2.767792568499834e-02, 2.079067210376509e-02,
	1.664469118982119e-02, 1.387612882307075e-02,
	1.189670994589177e-02, 1.041126526197209e-02,
	9.255462182712733e-03, 8.330563433362871e-03,
	7.573675487951841e-03, 6.942840107209530e-03,
	6.408994188004207e-03, 5.951370112758848e-03,
	5.554733551962801e-03, 5.207655919609640e-03,
	4.901395948434738e-03, 4.629153749334029e-03,
	4.385560249232324e-03, 4.166319691996922e-03,
	3.967954218640860e-03, 3.787618068444430e-03,
	3.622960224683090e-03, 3.472021382978770e-03,
	3.333155636728090e-03, 3.204970228055040e-03,
	3.086278682608780e-03, 2.976063983550410e-03,
	2.873449362352470e-03, 2.777674929752690e-03,
}

// StirlingCorrection 回傳 ln k! 的 Stirling 修正項：
//
//	ln k! = (k + 1/2) ln k - k + (1/2) ln 2π + StirlingCorrection(k)
//
// k <= 30 查表，其餘使用 1/k 級數。k < 0 視為 0。
func StirlingCorrection(k int64) float64 {
	if k > 30 {
		r := 1.0 / float64(k)
		rr := r * r
		return r * (stirC1 + rr*(stirC3+rr*(stirC5+rr*stirC7)))
	}
	if k < 0 {
		return 0
	}
	return stirlingTable[k]
}
