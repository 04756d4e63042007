// internal/tools/builtin.go
package tools

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
)

// Cities the multi-tool weather functions know about.
var Cities = []string{"London", "Paris", "New York", "Tokyo", "Sydney"}

// WideCities adds cities the GPT-OSS weather functions are asked about.
var WideCities = append(slices.Clone(Cities), "Toronto", "Berlin")

var (
	conditions     = []string{"sunny", "cloudy", "rainy", "snowy"}
	wideConditions = []string{"sunny", "cloudy", "rainy", "snowy", "foggy"}
)

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

var numberProps = map[string]any{
	"a": Prop("integer", "The first number"),
	"b": Prop("integer", "The second number"),
}

// AddTwoNumbers adds a and b.
func AddTwoNumbers() Tool {
	return Tool{
		Definition: Define("add_two_numbers", "Add two numbers", []string{"a", "b"}, numberProps),
		Func: func(_ context.Context, args map[string]any) (string, error) {
			a, b, err := twoInts(args)
			if err != nil {
				return "", err
			}
			return strconv.Itoa(a + b), nil
		},
	}
}

// SubtractTwoNumbers subtracts b from a.
func SubtractTwoNumbers() Tool {
	return Tool{
		Definition: Define("subtract_two_numbers", "Subtract two numbers", []string{"a", "b"}, numberProps),
		Func: func(_ context.Context, args map[string]any) (string, error) {
			a, b, err := twoInts(args)
			if err != nil {
				return "", err
			}
			return strconv.Itoa(a - b), nil
		},
	}
}

func twoInts(args map[string]any) (int, int, error) {
	a, err := IntArg(args, "a")
	if err != nil {
		return 0, 0, err
	}
	b, err := IntArg(args, "b")
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// Math returns the add and subtract tools.
func Math() []Tool {
	return []Tool{AddTwoNumbers(), SubtractTwoNumbers()}
}

var cityProps = map[string]any{"city": Prop("string", "The name of the city")}

// CityWeather returns get_temperature and get_conditions, which answer only for Cities.
func CityWeather(rng *rand.Rand) []Tool {
	return []Tool{
		{
			Definition: Define("get_temperature", "Get the temperature for a city in Celsius", []string{"city"}, cityProps),
			Func: func(_ context.Context, args map[string]any) (string, error) {
				if !slices.Contains(Cities, StringArg(args, "city")) {
					return "Unknown city", nil
				}
				return fmt.Sprintf("%d degrees Celsius", intN(rng, 36)), nil
			},
		},
		{
			Definition: Define("get_conditions", "Get the weather conditions for a city", []string{"city"}, cityProps),
			Func: func(_ context.Context, args map[string]any) (string, error) {
				if !slices.Contains(Cities, StringArg(args, "city")) {
					return "Unknown city", nil
				}
				return conditions[intN(rng, len(conditions))], nil
			},
		},
	}
}

// Weather returns get_weather and get_weather_conditions, which answer for any city.
func Weather(rng *rand.Rand) []Tool {
	return []Tool{
		{
			Definition: Define("get_weather", "Get the current temperature for a city", []string{"city"}, cityProps),
			Func: func(_ context.Context, args map[string]any) (string, error) {
				temp := intN(rng, 45) - 10
				return fmt.Sprintf("The temperature in %s is %d°C", StringArg(args, "city"), temp), nil
			},
		},
		{
			Definition: Define("get_weather_conditions", "Get the weather conditions for a city", []string{"city"}, cityProps),
			Func: func(_ context.Context, args map[string]any) (string, error) {
				return wideConditions[intN(rng, len(wideConditions))], nil
			},
		},
	}
}
