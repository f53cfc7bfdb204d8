// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package workload

// FindPrimes returns the primes up to max, by trial division.
func FindPrimes(max int) []int {
	var primes []int
	for num := 2; num <= max; num++ {
		isPrime := true
		for i := 2; i*i <= num; i++ {
			if num%i == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			primes = append(primes, num)
		}
	}
	return primes
}

// Fibonacci computes the n-th Fibonacci number with the exponential
// recursive algorithm.
func Fibonacci(n int) int {
	if n <= 1 {
		return n
	}
	return Fibonacci(n-1) + Fibonacci(n-2)
}
