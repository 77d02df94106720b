package barcode

// weights is the cycle the collection network's spec sheet prescribes for its
// verification digits: 1,3,5,7,9 then 3,5,7,9 repeating.
var weights = [9]int64{1, 3, 5, 7, 9, 3, 5, 7, 9}

// CheckDigit computes the weighted-sum verification digit of a numeric string:
// each digit times its cycled weight, summed, the sum halved by integer
// division, and the quotient taken mod 10.
func CheckDigit(numeric string) int {
	var sum int64
	for i := 0; i < len(numeric); i++ {
		d := int64(numeric[i] - '0')
		sum += d * weights[i%len(weights)]
	}
	return int((sum / 2) % 10)
}
