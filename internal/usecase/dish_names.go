package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mealsignal/backend/internal/domain"
)

var (
	whitespaceRegex       = regexp.MustCompile(`\s+`)
	trailingPunctuationRe = regexp.MustCompile(`[.!?,;:]+$`)
)

// genericItemNames are labels that say nothing about the dish
var genericItemNames = map[string]bool{
	"meal": true, "food": true, "dish": true, "plate": true, "bowl": true,
	"snack": true, "lunch": true, "dinner": true, "breakfast": true,
}

// dishPattern tests the combined lowercase text of all detected items
type dishPattern func(text string) bool

func kw(word string) dishPattern {
	return func(text string) bool { return strings.Contains(text, word) }
}

func and(patterns ...dishPattern) dishPattern {
	return func(text string) bool {
		for _, p := range patterns {
			if !p(text) {
				return false
			}
		}
		return true
	}
}

func or(patterns ...dishPattern) dishPattern {
	return func(text string) bool {
		for _, p := range patterns {
			if p(text) {
				return true
			}
		}
		return false
	}
}

type dishRule struct {
	match dishPattern
	label string
}

// dishRules is evaluated first-match-wins. The order is load-bearing: it is
// the legacy last-assignment-wins chain reversed, so broad rules such as taco
// and burrito shadow Taco bowl, Taco plate and Burrito bowl, which never match.
var dishRules = []dishRule{
	{or(kw("cookie"), kw("cookies")), "Cookies"},
	{kw("ice cream"), "Ice cream"},
	{and(kw("granola"), kw("bowl")), "Granola bowl"},
	{kw("cereal"), "Cereal"},
	{and(kw("gyro"), kw("plate")), "Gyro plate"},
	{and(kw("shawarma"), kw("plate")), "Shawarma plate"},
	{and(kw("hummus"), kw("pita")), "Hummus with pita"},
	{kw("falafel"), "Falafel"},
	{and(kw("rice"), kw("beans")), "Rice and beans"},
	{and(kw("sushi"), kw("bowl")), "Sushi bowl"},
	{and(kw("salmon"), kw("salad")), "Salmon salad"},
	{and(kw("salmon"), kw("rice")), "Salmon with rice"},
	{and(kw("steak"), kw("potato")), "Steak with potatoes"},
	{and(kw("fish"), kw("chips")), "Fish and chips"},
	{and(kw("fries"), kw("sweet potato")), "Sweet potato fries"},
	{kw("hot dog"), "Hot dog"},
	{and(kw("burger"), kw("veggie")), "Veggie burger"},
	{and(kw("burger"), kw("chicken")), "Chicken burger"},
	{and(kw("burger"), kw("cheese")), "Cheeseburger"},
	{kw("chili"), "Chili"},
	{and(kw("soup"), kw("noodle")), "Noodle soup"},
	{and(kw("soup"), kw("tomato")), "Tomato soup"},
	{and(kw("soup"), kw("chicken")), "Chicken soup"},
	{and(kw("fruit"), kw("salad")), "Fruit salad"},
	{and(kw("granola"), kw("yogurt")), "Yogurt with granola"},
	{and(kw("yogurt"), kw("parfait")), "Yogurt parfait"},
	{and(kw("protein"), kw("shake")), "Protein shake"},
	{kw("smoothie"), "Smoothie"},
	{and(kw("breakfast"), kw("sandwich")), "Breakfast sandwich"},
	{and(kw("breakfast"), kw("burrito")), "Breakfast burrito"},
	{and(kw("scrambled"), kw("egg")), "Scrambled eggs"},
	{or(kw("omelet"), kw("omelette")), "Omelet"},
	{or(kw("waffle"), kw("waffles")), "Waffles"},
	{or(kw("pancake"), kw("pancakes")), "Pancakes"},
	{kw("oatmeal"), "Oatmeal"},
	{and(kw("avocado"), kw("toast")), "Avocado toast"},
	{and(kw("bagel"), kw("cream cheese")), "Bagel with cream cheese"},
	{kw("panini"), "Panini"},
	{and(kw("sandwich"), kw("tuna")), "Tuna sandwich"},
	{and(kw("sandwich"), kw("club")), "Club sandwich"},
	{and(kw("sandwich"), kw("grilled cheese")), "Grilled cheese"},
	{and(kw("wrap"), kw("veggie")), "Veggie wrap"},
	{and(kw("wrap"), kw("chicken")), "Chicken wrap"},
	{kw("taco"), "Tacos"},
	{kw("burrito"), "Burrito"},
	{kw("nacho"), "Nachos"},
	{kw("quesadilla"), "Quesadilla"},
	{and(kw("taco"), kw("bowl")), "Taco bowl"},
	{and(kw("pizza"), kw("veggie")), "Veggie pizza"},
	{and(kw("pizza"), kw("cheese")), "Cheese pizza"},
	{and(kw("pizza"), kw("pepperoni")), "Pepperoni pizza"},
	{kw("lasagna"), "Lasagna"},
	{and(kw("spaghetti"), kw("meatballs")), "Spaghetti and meatballs"},
	{and(kw("noodle"), kw("stir fry")), "Stir-fry noodles"},
	{and(kw("ramen"), kw("miso")), "Miso ramen"},
	{and(kw("ramen"), kw("shoyu")), "Shoyu ramen"},
	{and(kw("ramen"), kw("tonkotsu")), "Tonkotsu ramen"},
	{and(kw("poke"), kw("tuna")), "Tuna poke bowl"},
	{and(kw("poke"), kw("salmon")), "Salmon poke bowl"},
	{kw("sashimi"), "Sashimi"},
	{and(kw("sushi"), kw("combo")), "Sushi combo"},
	{and(kw("naan"), kw("curry")), "Curry with naan"},
	{and(kw("butter"), kw("chicken")), "Butter chicken"},
	{and(kw("tikka"), kw("masala")), "Chicken tikka masala"},
	{and(kw("curry"), kw("rice")), "Curry with rice"},
	{kw("pho"), "Pho"},
	{kw("bento"), "Bento box"},
	{and(kw("teriyaki"), kw("bowl")), "Teriyaki bowl"},
	{and(kw("rice"), kw("chicken"), kw("beans")), "Chicken rice bowl"},
	{kw("fried rice"), "Fried rice"},
	{or(kw("stir fry"), kw("stir-fry")), "Stir-fry"},
	{kw("pad thai"), "Pad thai"},
	{kw("bibimbap"), "Bibimbap"},
	{and(kw("salad"), kw("poke")), "Poke salad"},
	{and(kw("salad"), kw("tuna")), "Tuna salad"},
	{and(kw("salad"), kw("caesar")), "Caesar salad"},
	{and(kw("salad"), kw("greek")), "Greek salad"},
	{and(kw("salad"), kw("cobb")), "Cobb salad"},
	{and(kw("salad"), kw("chicken")), "Chicken salad"},
	{and(kw("sushi"), kw("roll")), "Sushi roll"},
	{or(kw("fried chicken"), and(kw("chicken"), kw("wings"))), "Chicken wings"},
	{and(or(kw("shawarma"), kw("gyro")), kw("wrap")), "Shawarma wrap"},
	{and(kw("taco"), kw("plate")), "Taco plate"},
	{or(and(kw("burrito"), kw("bowl")), and(kw("rice bowl"), kw("beans"))), "Burrito bowl"},
	{or(and(kw("poke"), kw("bowl")), kw("poke bowl")), "Poke bowl"},
	{and(or(kw("ramen"), kw("noodle bowl")), or(kw("broth"), kw("noodle"))), "Ramen bowl"},
	{or(kw("cheesesteak"), and(kw("philly"), kw("steak"))), "Philly cheesesteak"},
	{and(kw("fries"), or(kw("curd"), kw("cheese curds"))), "Poutine"},
	{or(kw("poutine"), and(kw("fries"), kw("gravy"))), "Poutine"},
}

// dishLabels is the set of names a dish rule can assign
var dishLabels = func() map[string]bool {
	labels := make(map[string]bool, len(dishRules))
	for _, rule := range dishRules {
		labels[rule.label] = true
	}
	return labels
}()

// ResolveNames cleans item names, orders items by how informative they are and,
// when the combined text names a known composite dish, relabels the first item.
// A list that already leads with a dish label is returned in its order, so
// resolving a resolved list changes nothing.
func ResolveNames(items []domain.DetectedItem) []domain.DetectedItem {
	if len(items) == 0 {
		return items
	}

	ordered := make([]domain.DetectedItem, len(items))
	copy(ordered, items)
	for i := range ordered {
		ordered[i].Name = cleanItemName(ordered[i].Name)
	}
	if dishLabels[ordered[0].Name] {
		return ordered
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return scoreItem(ordered[i]) > scoreItem(ordered[j])
	})

	if label, ok := matchDish(searchText(ordered)); ok {
		ordered[0].Name = label
	}
	return ordered
}

// cleanItemName trims, collapses whitespace and drops trailing punctuation
func cleanItemName(name string) string {
	name = whitespaceRegex.ReplaceAllString(strings.TrimSpace(name), " ")
	name = strings.TrimSpace(trailingPunctuationRe.ReplaceAllString(name, ""))
	if name == "" {
		return "Meal"
	}
	return name
}

// scoreItem favors confident, descriptive names over generic labels
func scoreItem(item domain.DetectedItem) float64 {
	lower := strings.ToLower(item.Name)
	score := item.Confidence
	if len(strings.Fields(lower)) > 1 {
		score += 0.15
	}
	if utf8.RuneCountInString(item.Name) >= 8 {
		score += 0.05
	}
	if genericItemNames[lower] {
		score -= 0.25
	}
	return score
}

func searchText(items []domain.DetectedItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, strings.TrimSpace(item.Name+" "+item.Notes))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func matchDish(text string) (string, bool) {
	for _, rule := range dishRules {
		if rule.match(text) {
			return rule.label, true
		}
	}
	return "", false
}
